package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

// EventType определяет тип события.
type EventType string

const (
	EventTypeOrderCreated  EventType = "order.created"
	EventTypeOrderCanceled EventType = "order.canceled"
	EventTypeUserSignedUp  EventType = "user.signed_up"
)

// Topics для Kafka.
const (
	TopicOrderEvents = "marazul.order.events"
	TopicUserEvents  = "marazul.user.events"
)

// HeaderEventType дублирует тип события в заголовке сообщения.
const HeaderEventType = "x-event-type"

// OrderEvent описывает изменение заказа. Суммы в минимальных единицах.
type OrderEvent struct {
	EventType EventType `json:"event_type"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Currency  string    `json:"currency"`
	Amount    int64     `json:"amount_minor"`
	Items     int       `json:"items"`
	Timestamp time.Time `json:"timestamp"`
}

// Type возвращает тип события.
func (e OrderEvent) Type() EventType { return e.EventType }

// NewOrderEvent создаёт событие по заказу.
func NewOrderEvent(eventType EventType, order domain.Order) OrderEvent {
	return OrderEvent{
		EventType: eventType,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Currency:  order.Currency,
		Amount:    order.Amount,
		Items:     len(order.Items),
		Timestamp: time.Now().UTC(),
	}
}

// UserEvent описывает событие учётной записи.
type UserEvent struct {
	EventType EventType `json:"event_type"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// Type возвращает тип события.
func (e UserEvent) Type() EventType { return e.EventType }

// NewUserEvent создаёт событие учётной записи.
func NewUserEvent(eventType EventType, user domain.User) UserEvent {
	return UserEvent{
		EventType: eventType,
		UserID:    user.ID,
		Email:     user.Email,
		Timestamp: time.Now().UTC(),
	}
}
