package models

import "time"

// OrderStatus is a step of the order lifecycle
type OrderStatus string

// Order statuses
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// fulfilmentRank orders the forward path; cancelled is off the path.
var fulfilmentRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := fulfilmentRank[s]
	return ok || s == OrderStatusCancelled
}

// Cancellable reports whether a customer may still cancel from s.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// StockCommitted reports whether inventory was deducted by the time the
// order reached s.
func (s OrderStatus) StockCommitted() bool {
	rank, ok := fulfilmentRank[s]
	return ok && rank >= fulfilmentRank[OrderStatusConfirmed]
}

// CanAdvanceTo reports whether next is exactly one step forward from s.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	from, ok := fulfilmentRank[s]
	if !ok {
		return false
	}
	to, ok := fulfilmentRank[next]
	return ok && to == from+1
}

// Order represents a customer order
type Order struct {
	ID          string      `db:"id" bson:"_id" json:"id"`
	OrderNumber string      `db:"order_number" bson:"order_number" json:"orderId"`
	UserID      string      `db:"user_id" bson:"user_id" json:"userId"`
	Status      OrderStatus `db:"status" bson:"status" json:"orderStatus"`
	Items       []OrderItem `db:"-" bson:"items" json:"items"`
	Subtotal    float64     `db:"subtotal" bson:"subtotal" json:"subtotal"`
	Shipping    float64     `db:"shipping" bson:"shipping" json:"shipping"`
	Discount    float64     `db:"discount" bson:"discount" json:"discount"`
	PromoCode   string      `db:"promo_code" bson:"promo_code,omitempty" json:"promoCode,omitempty"`
	Total       float64     `db:"total" bson:"total" json:"total"`
	CreatedAt   time.Time   `db:"created_at" bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" bson:"updated_at" json:"updatedAt"`
}

// OrderItem references one product variant in an order
type OrderItem struct {
	OrderID          string  `db:"order_id" bson:"-" json:"-"`
	ProductID        string  `db:"product_id" bson:"product_id" json:"productId"`
	Size             string  `db:"size" bson:"size" json:"size"`
	Color            string  `db:"color" bson:"color" json:"color"`
	Quantity         int     `db:"quantity" bson:"quantity" json:"quantity"`
	UnitPrice        float64 `db:"unit_price" bson:"unit_price" json:"unitPrice"`
	CustomizationFee float64 `db:"customization_fee" bson:"customization_fee" json:"customizationFee"`
	ItemTotal        float64 `db:"item_total" bson:"item_total" json:"itemTotal"`
}

// Product represents a product in the catalog
type Product struct {
	ID        string           `db:"id" bson:"_id" json:"id"`
	Name      string           `db:"name" bson:"name" json:"name"`
	Category  string           `db:"category" bson:"category" json:"category"`
	Price     float64          `db:"price" bson:"price" json:"price"`
	Variants  []ProductVariant `db:"-" bson:"variants" json:"variants"`
	CreatedAt time.Time        `db:"created_at" bson:"created_at" json:"createdAt"`
}

// ProductVariant is the stock-keeping unit of a product for one size/color
type ProductVariant struct {
	ProductID string `db:"product_id" bson:"-" json:"-"`
	Size      string `db:"size" bson:"size" json:"size"`
	Color     string `db:"color" bson:"color" json:"color"`
	Stock     int    `db:"stock" bson:"stock" json:"stock"`
}

// Category groups products for catalog browsing
type Category struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	Name      string    `db:"name" bson:"name" json:"name"`
	Slug      string    `db:"slug" bson:"slug" json:"slug"`
	IsActive  bool      `db:"is_active" bson:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" bson:"created_at" json:"createdAt"`
}

// Notification types
const (
	NotificationOrderCancelled = "order_cancelled"
)

// Notification is an operator-facing entry in the append-only event log
type Notification struct {
	ID          string    `db:"id" bson:"_id" json:"id"`
	EventID     string    `db:"event_id" bson:"event_id,omitempty" json:"eventId,omitempty"`
	Type        string    `db:"type" bson:"type" json:"type"`
	OrderID     string    `db:"order_id" bson:"order_id" json:"orderId"`
	OrderNumber string    `db:"order_number" bson:"order_number" json:"orderNumber"`
	Total       float64   `db:"total" bson:"total" json:"total"`
	Message     string    `db:"message" bson:"message" json:"message"`
	Read        bool      `db:"is_read" bson:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" bson:"created_at" json:"createdAt"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id" bson:"_id"`
	EventType   string    `db:"event_type" bson:"event_type"`
	ProcessedAt time.Time `db:"processed_at" bson:"processed_at"`
}
