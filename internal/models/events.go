package models

import "time"

// Event types
const (
	EventTypeOrderPlaced    = "ORDER_PLACED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent is published by checkout once an order exists; a promo
// code on it is redeemed exactly once.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	UserID      string  `json:"user_id"`
	PromoCode   string  `json:"promo_code,omitempty"`
	Total       float64 `json:"total"`
}

// OrderCancelledEvent published when a customer cancels an order
type OrderCancelledEvent struct {
	BaseEvent
	OrderID        string      `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	UserID         string      `json:"user_id"`
	Total          float64     `json:"total"`
	PreviousStatus OrderStatus `json:"previous_status"`
}

// Notification converts the event into its operator log entry.
func (e *OrderCancelledEvent) Notification() *Notification {
	return &Notification{
		EventID:     e.EventID,
		Type:        NotificationOrderCancelled,
		OrderID:     e.OrderID,
		OrderNumber: e.OrderNumber,
		Total:       e.Total,
		Message:     "Order " + e.OrderNumber + " was cancelled by the customer",
		CreatedAt:   e.Timestamp,
	}
}
