package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category категория каталога
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

// Product товар аптеки
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	ImageURL    string          `json:"image_url"`
	Dosage      string          `json:"dosage"`
	IsPopular   bool            `json:"is_popular"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Cart корзина, одна на пользователя
type Cart struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem позиция корзины, уникальна по (cart, product)
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	CartID    uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// CartLine позиция корзины вместе с текущими данными товара
type CartLine struct {
	CartItem
	Product Product `json:"product"`
}

// LineTotal цена × количество по текущей цене товара
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// OrderStatus статус заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses полный набор статусов в порядке жизненного цикла
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// ParseOrderStatus приводит строку к статусу; ok=false для неизвестных значений
func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentEWallet      PaymentMethod = "e_wallet"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", PaymentCOD:
		return PaymentCOD, true
	case PaymentBankTransfer:
		return PaymentBankTransfer, true
	case PaymentEWallet:
		return PaymentEWallet, true
	default:
		return "", false
	}
}

// OrderItem снимок товара на момент покупки; не пересчитывается из каталога
type OrderItem struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	ProductID    *uuid.UUID      `json:"product_id,omitempty"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int64           `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Order сущность заказа
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	OrderNumber     string          `json:"order_number"`
	IdempotencyKey  string          `json:"-"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	ShippingAddress string          `json:"shipping_address"`
	Notes           string          `json:"notes,omitempty"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ItemsTotal сумма subtotal по позициям
func (o Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}

// Profile профиль покупателя; ID совпадает с идентификатором пользователя
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role роль пользователя
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)
