package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"warungmadura/internal/auth"
	"warungmadura/internal/domain"
	"warungmadura/internal/events"
	"warungmadura/internal/logging"
	"warungmadura/internal/repository"
)

const maxIdempotencyKeyLen = 128

// CheckoutRequest данные формы оформления заказа
type CheckoutRequest struct {
	ShippingAddress string
	PaymentMethod   string
	Notes           string
	IdempotencyKey  string
}

// CheckoutService превращает корзину в заказ одной транзакцией
type CheckoutService struct {
	carts     repository.CartRepository
	products  repository.ProductRepository
	orders    repository.OrderRepository
	tx        repository.TxManager
	publisher events.Publisher
	now       func() time.Time
}

func NewCheckoutService(carts repository.CartRepository, products repository.ProductRepository, orders repository.OrderRepository, tx repository.TxManager, publisher events.Publisher) *CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CheckoutService{
		carts: carts, products: products, orders: orders, tx: tx, publisher: publisher,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// NewOrderNumber WM-<yyyymmddhhmmss>-<8 hex>
func NewOrderNumber(t time.Time) string {
	return "WM-" + t.UTC().Format("20060102150405") + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Checkout создаёт заказ, снимки позиций, списывает остатки и очищает корзину.
// Повтор с тем же ключом идемпотентности возвращает ранее созданный заказ.
func (s *CheckoutService) Checkout(ctx context.Context, sess auth.Session, req CheckoutRequest) (*domain.Order, error) {
	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: shipping address is required", ErrInvalidInput)
	}
	method, ok := domain.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, req.PaymentMethod)
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return nil, fmt.Errorf("%w: idempotency key too long", ErrInvalidInput)
	}

	var (
		placed *domain.Order
		replay bool
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// параллельные оформления одной корзины идут по очереди
		cart, err := s.carts.LockByUser(ctx, sess.UserID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if key != "" {
			prev, err := s.orders.GetByIdempotencyKey(ctx, sess.UserID, key)
			if err == nil {
				placed, replay = prev, true
				return nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
		if cart == nil {
			return ErrEmptyCart
		}
		lines, err := s.carts.ListLines(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		items := make([]domain.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, l := range lines {
			pid := l.ProductID
			sub := l.LineTotal()
			items = append(items, domain.OrderItem{
				ProductID:    &pid,
				ProductName:  l.Product.Name,
				ProductPrice: l.Product.Price,
				Quantity:     l.Quantity,
				Subtotal:     sub,
			})
			total = total.Add(sub)
		}

		o := domain.Order{
			UserID:          sess.UserID,
			OrderNumber:     NewOrderNumber(s.now()),
			IdempotencyKey:  key,
			TotalAmount:     total,
			Status:          domain.OrderStatusPending,
			PaymentMethod:   method,
			ShippingAddress: address,
			Notes:           strings.TrimSpace(req.Notes),
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.orders.AddItems(ctx, o.ID, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		for _, l := range lines {
			if err := s.products.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return fmt.Errorf("%s: %w", l.Product.Name, err)
			}
		}
		if err := s.carts.Clear(ctx, cart.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		o.Items = items
		placed = &o
		return nil
	})
	if err != nil {
		// параллельный повтор с тем же ключом зафиксировался первым
		if key != "" && errors.Is(err, repository.ErrConflict) {
			if prev, lookupErr := s.orders.GetByIdempotencyKey(ctx, sess.UserID, key); lookupErr == nil {
				return prev, nil
			}
		}
		return nil, err
	}

	if !replay {
		s.publishPlaced(ctx, *placed)
	}
	return placed, nil
}

func (s *CheckoutService) publishPlaced(ctx context.Context, o domain.Order) {
	err := s.publisher.Publish(ctx, events.TopicOrderPlaced, o.ID.String(), events.NewOrderPlaced(o))
	if err != nil {
		slog.Warn("order placed event not published",
			slog.String(logging.TraceID, logging.TraceIDFrom(ctx)),
			slog.String(logging.Topic, events.TopicOrderPlaced),
			slog.String(logging.OrderID, o.ID.String()),
			slog.String(logging.OrderNumber, o.OrderNumber),
			slog.String(logging.Error, err.Error()))
	}
}
