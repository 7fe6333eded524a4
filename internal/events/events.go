package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"

	"warungmadura/internal/domain"
)

const (
	TopicOrderPlaced        = "orders.placed"
	TopicOrderStatusChanged = "orders.status_changed"
)

// OrderPlacedEvent публикуется после фиксации оформления заказа
type OrderPlacedEvent struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []PlacedItem    `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
}

type PlacedItem struct {
	ProductID string `json:"product_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

// OrderStatusChangedEvent публикуется после смены статуса администратором
type OrderStatusChangedEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ChangedAt   time.Time `json:"changed_at"`
}

func NewOrderPlaced(o domain.Order) OrderPlacedEvent {
	ev := OrderPlacedEvent{
		OrderID:     o.ID.String(),
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID.String(),
		TotalAmount: o.TotalAmount,
		Items:       make([]PlacedItem, 0, len(o.Items)),
		CreatedAt:   o.CreatedAt,
	}
	for _, it := range o.Items {
		pi := PlacedItem{Quantity: it.Quantity}
		if it.ProductID != nil {
			pi.ProductID = it.ProductID.String()
		}
		ev.Items = append(ev.Items, pi)
	}
	return ev
}

func NewOrderStatusChanged(o domain.Order, from domain.OrderStatus) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:     o.ID.String(),
		OrderNumber: o.OrderNumber,
		From:        string(from),
		To:          string(o.Status),
		ChangedAt:   o.UpdatedAt,
	}
}

// Publisher отправка события в топик; key определяет партицию
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// KafkaPublisher синхронная публикация через franz-go
type KafkaPublisher struct {
	client *kgo.Client
}

func NewKafkaPublisher(brokers []string, clientID string) (*KafkaPublisher, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaPublisher{client: cl}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	rec := &kgo.Record{Topic: topic, Key: []byte(key), Value: data}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() { p.client.Close() }

// NopPublisher события отключены
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }

// Message сохранённое событие RecordingPublisher
type Message struct {
	Topic string
	Key   string
	Event any
}

// RecordingPublisher складывает события в память; используется в тестах и демо-режиме
type RecordingPublisher struct {
	mu   sync.Mutex
	msgs []Message
	Err  error
}

func (r *RecordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.msgs = append(r.msgs, Message{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *RecordingPublisher) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}
