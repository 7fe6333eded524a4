package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"warungmadura/internal/domain"
)

var (
	// ErrNotFound возвращается, когда сущность не найдена
	ErrNotFound = errors.New("not found")
	// ErrConflict нарушение уникальности (slug, номер заказа, позиция корзины)
	ErrConflict = errors.New("conflict")
	// ErrNotEnoughStock условное списание не прошло: остаток меньше количества
	ErrNotEnoughStock = errors.New("not enough stock")
	// ErrInvalidQuantity количество меньше 1
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	CategoryID    *uuid.UUID
	NameSubstring string
	InStockOnly   bool
}

// CategoryRepository интерфейс репозитория категорий
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// ProductRepository интерфейс репозитория товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	// DecrementStock списывает qty только если stock >= qty, иначе ErrNotEnoughStock
	DecrementStock(ctx context.Context, id uuid.UUID, qty int64) error
}

// CartRepository интерфейс репозитория корзин
type CartRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	// LockByUser как GetByUser, но внутри транзакции блокирует строку корзины до её конца
	LockByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	Create(ctx context.Context, c *domain.Cart) error
	ListLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error)
	GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error)
	GetItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*domain.CartItem, error)
	AddItem(ctx context.Context, it *domain.CartItem) error
	SetQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int64) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// OrderRepository интерфейс репозитория заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	AddItems(ctx context.Context, orderID uuid.UUID, items []domain.OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Order, error)
	// ListByUser заказы пользователя, новые первыми
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	// ListAll все заказы (пустой status без фильтра), новые первыми
	ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

// ProfileRepository интерфейс репозитория профилей
type ProfileRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Upsert(ctx context.Context, p *domain.Profile) error
}

// RoleRepository членство пользователей в ролях (user_roles)
type RoleRepository interface {
	Roles(ctx context.Context, userID uuid.UUID) ([]domain.Role, error)
	Grant(ctx context.Context, userID uuid.UUID, role domain.Role) error
}

// TxManager абстракция транзакции. Ошибка из fn откатывает все изменения.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories набор репозиториев одного хранилища
type Repositories struct {
	Categories CategoryRepository
	Products   ProductRepository
	Carts      CartRepository
	Orders     OrderRepository
	Profiles   ProfileRepository
	Roles      RoleRepository
	Tx         TxManager
}

// NewMemoryRepositories все репозитории поверх одного MemoryStore
func NewMemoryRepositories(store *MemoryStore) Repositories {
	return Repositories{
		Categories: NewMemoryCategories(store),
		Products:   store,
		Carts:      NewMemoryCarts(store),
		Orders:     NewMemoryOrders(store),
		Profiles:   NewMemoryProfiles(store),
		Roles:      NewMemoryRoles(store),
		Tx:         NewMemoryTx(store),
	}
}

// NewGormRepositories все репозитории поверх одного подключения gorm
func NewGormRepositories(store *GormStore) Repositories {
	return Repositories{
		Categories: &GormCategories{GormStore: store},
		Products:   &GormProducts{GormStore: store},
		Carts:      &GormCarts{GormStore: store},
		Orders:     &GormOrders{GormStore: store},
		Profiles:   &GormProfiles{GormStore: store},
		Roles:      &GormRoles{GormStore: store},
		Tx:         NewGormTx(store),
	}
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
