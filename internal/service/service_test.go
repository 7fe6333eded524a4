package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"warungmadura/internal/auth"
	"warungmadura/internal/domain"
	"warungmadura/internal/events"
	"warungmadura/internal/repository"
)

type fixture struct {
	repos     repository.Repositories
	catalog   *CatalogService
	carts     *CartService
	checkout  *CheckoutService
	orders    *OrderService
	admin     *AdminService
	profiles  *ProfileService
	published *events.RecordingPublisher
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	pub := &events.RecordingPublisher{}
	return &fixture{
		repos:     repos,
		catalog:   NewCatalogService(repos.Categories, repos.Products),
		carts:     NewCartService(repos.Carts, repos.Products, repos.Tx),
		checkout:  NewCheckoutService(repos.Carts, repos.Products, repos.Orders, repos.Tx, pub),
		orders:    NewOrderService(repos.Orders),
		admin:     NewAdminService(repos.Products, repos.Categories, repos.Orders, pub),
		profiles:  NewProfileService(repos.Profiles),
		published: pub,
	}
}

func customer() auth.Session {
	return auth.Session{UserID: uuid.New(), Email: "budi@warung.test", Roles: []domain.Role{domain.RoleUser}}
}

func adminSession() auth.Session {
	return auth.Session{UserID: uuid.New(), Email: "admin@warung.test", Roles: []domain.Role{domain.RoleAdmin}}
}

func (f *fixture) product(t *testing.T, name string, price, stock int64) *domain.Product {
	t.Helper()
	p, err := f.admin.CreateProduct(context.Background(), adminSession(), ProductInput{
		Name: name, Price: decimal.NewFromInt(price), Stock: stock,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}

func (f *fixture) stockOf(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return p.Stock
}
