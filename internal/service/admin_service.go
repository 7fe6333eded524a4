package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"warungmadura/internal/auth"
	"warungmadura/internal/domain"
	"warungmadura/internal/events"
	"warungmadura/internal/export"
	"warungmadura/internal/logging"
	"warungmadura/internal/repository"
)

// ProductInput поля товара из админ-панели; пустой slug выводится из имени
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Slug        string          `json:"slug" validate:"omitempty,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock" validate:"gte=0"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	ImageURL    string          `json:"image_url" validate:"max=1000"`
	Dosage      string          `json:"dosage" validate:"max=500"`
	IsPopular   bool            `json:"is_popular"`
}

// CategoryInput новая категория каталога
type CategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=100"`
	Icon string `json:"icon" validate:"max=100"`
}

// AdminService операции админ-панели; каждая требует роль admin
type AdminService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	orders     repository.OrderRepository
	publisher  events.Publisher
}

func NewAdminService(products repository.ProductRepository, categories repository.CategoryRepository, orders repository.OrderRepository, publisher events.Publisher) *AdminService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AdminService{products: products, categories: categories, orders: orders, publisher: publisher}
}

func requireAdmin(sess auth.Session) error {
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (in ProductInput) normalize() (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = Slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = Slugify(in.Name)
	}
	if err := validate.Struct(in); err != nil {
		return in, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Price.IsNegative() {
		return in, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return in, nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.Name = in.Name
	p.Slug = in.Slug
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.CategoryID = in.CategoryID
	p.ImageURL = in.ImageURL
	p.Dosage = in.Dosage
	p.IsPopular = in.IsPopular
}

// ListProducts все товары, включая отсутствующие на складе
func (s *AdminService) ListProducts(ctx context.Context, sess auth.Session) ([]domain.Product, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.products.List(ctx, repository.ProductFilter{})
}

func (s *AdminService) CreateProduct(ctx context.Context, sess auth.Session, in ProductInput) (*domain.Product, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	var p domain.Product
	in.apply(&p)
	if err := s.products.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *AdminService) UpdateProduct(ctx context.Context, sess auth.Session, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, sess auth.Session, id uuid.UUID) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	return s.products.Delete(ctx, id)
}

func (s *AdminService) CreateCategory(ctx context.Context, sess auth.Session, in CategoryInput) (*domain.Category, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = Slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = Slugify(in.Name)
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	c := domain.Category{Name: in.Name, Slug: in.Slug, Icon: strings.TrimSpace(in.Icon)}
	if err := s.categories.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListOrders все заказы, новые первыми; пустой status без фильтра
func (s *AdminService) ListOrders(ctx context.Context, sess auth.Session, status string) ([]domain.Order, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	var filter domain.OrderStatus
	if strings.TrimSpace(status) != "" {
		st, ok := domain.ParseOrderStatus(status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
		filter = st
	}
	return s.orders.ListAll(ctx, filter)
}

// UpdateOrderStatus ручная смена статуса: допустим любой переход между шестью статусами
func (s *AdminService) UpdateOrderStatus(ctx context.Context, sess auth.Session, id uuid.UUID, status string) (*domain.Order, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	st, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	before, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, id, st); err != nil {
		return nil, err
	}
	after, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.Status != after.Status {
		ev := events.NewOrderStatusChanged(*after, before.Status)
		if err := s.publisher.Publish(ctx, events.TopicOrderStatusChanged, after.ID.String(), ev); err != nil {
			slog.Warn("order status event not published",
				slog.String(logging.TraceID, logging.TraceIDFrom(ctx)),
				slog.String(logging.Topic, events.TopicOrderStatusChanged),
				slog.String(logging.OrderID, after.ID.String()),
				slog.String(logging.OrderNumber, after.OrderNumber),
				slog.String(logging.Error, err.Error()))
		}
	}
	return after, nil
}

// ExportProducts выгрузка всех товаров в xlsx
func (s *AdminService) ExportProducts(ctx context.Context, sess auth.Session, w io.Writer) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	products, err := s.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return err
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return err
	}
	names := make(map[uuid.UUID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return export.WriteProducts(w, products, names)
}
