package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"warungmadura/internal/auth"
	"warungmadura/internal/domain"
	"warungmadura/internal/repository"
)

// CartView корзина с позициями и суммой по текущим ценам
type CartView struct {
	Cart  domain.Cart       `json:"cart"`
	Items []domain.CartLine `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

// CartService корзина текущего пользователя
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	tx       repository.TxManager
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, tx repository.TxManager) *CartService {
	return &CartService{carts: carts, products: products, tx: tx}
}

// GetOrCreateCart корзина создаётся лениво, одна на пользователя
func (s *CartService) GetOrCreateCart(ctx context.Context, sess auth.Session) (*domain.Cart, error) {
	c, err := s.carts.GetByUser(ctx, sess.UserID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	c = &domain.Cart{UserID: sess.UserID}
	if err := s.carts.Create(ctx, c); err != nil {
		// параллельный запрос успел создать корзину
		if errors.Is(err, repository.ErrConflict) {
			return s.carts.GetByUser(ctx, sess.UserID)
		}
		return nil, err
	}
	return c, nil
}

func (s *CartService) View(ctx context.Context, sess auth.Session) (*CartView, error) {
	c, err := s.GetOrCreateCart(ctx, sess)
	if err != nil {
		return nil, err
	}
	lines, err := s.carts.ListLines(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return &CartView{Cart: *c, Items: lines, Total: total}, nil
}

// AddItem добавляет товар; повторное добавление увеличивает количество
func (s *CartService) AddItem(ctx context.Context, sess auth.Session, productID uuid.UUID, qty int64) (*CartView, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	c, err := s.GetOrCreateCart(ctx, sess)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		existing, err := s.carts.GetItemByProduct(ctx, c.ID, productID)
		switch {
		case err == nil:
			// сравнение с остатком до сложения, без переполнения
			if qty > p.Stock-existing.Quantity {
				return fmt.Errorf("%s: %w", p.Name, ErrNotEnoughStock)
			}
			return s.carts.SetQuantity(ctx, c.ID, existing.ID, existing.Quantity+qty)
		case errors.Is(err, repository.ErrNotFound):
			if qty > p.Stock {
				return fmt.Errorf("%s: %w", p.Name, ErrNotEnoughStock)
			}
			return s.carts.AddItem(ctx, &domain.CartItem{CartID: c.ID, ProductID: productID, Quantity: qty})
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, sess)
}

// SetQuantity qty < 1 отклоняется без изменений
func (s *CartService) SetQuantity(ctx context.Context, sess auth.Session, itemID uuid.UUID, qty int64) (*CartView, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	c, err := s.carts.GetByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		it, err := s.carts.GetItem(ctx, c.ID, itemID)
		if err != nil {
			return err
		}
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if qty > p.Stock {
			return fmt.Errorf("%s: %w", p.Name, ErrNotEnoughStock)
		}
		return s.carts.SetQuantity(ctx, c.ID, itemID, qty)
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, sess)
}

func (s *CartService) RemoveItem(ctx context.Context, sess auth.Session, itemID uuid.UUID) (*CartView, error) {
	c, err := s.carts.GetByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, c.ID, itemID); err != nil {
		return nil, err
	}
	return s.View(ctx, sess)
}
