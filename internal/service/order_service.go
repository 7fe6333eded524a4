package service

import (
	"context"

	"github.com/google/uuid"

	"warungmadura/internal/auth"
	"warungmadura/internal/domain"
	"warungmadura/internal/invoice"
	"warungmadura/internal/repository"
)

// OrderService история заказов покупателя
type OrderService struct {
	orders repository.OrderRepository
}

func NewOrderService(orders repository.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// ListForUser заказы текущего пользователя, новые первыми
func (s *OrderService) ListForUser(ctx context.Context, sess auth.Session) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, sess.UserID)
}

// Get чужой заказ виден только администратору, иначе ErrNotFound
func (s *OrderService) Get(ctx context.Context, sess auth.Session, id uuid.UUID) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != sess.UserID && !sess.IsAdmin() {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

// Invoice имя файла и текст счёта
func (s *OrderService) Invoice(ctx context.Context, sess auth.Session, id uuid.UUID) (string, string, error) {
	o, err := s.Get(ctx, sess, id)
	if err != nil {
		return "", "", err
	}
	return invoice.Filename(*o), invoice.Render(*o), nil
}
