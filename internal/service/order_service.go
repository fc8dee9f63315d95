package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the order persistence OrderService needs.
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// GetUserOrder returns models.ErrNotFound when the order is missing or
	// belongs to someone else.
	GetUserOrder(ctx context.Context, id, userID string) (*models.Order, error)
	// UpdateOrderStatus applies the change only while the stored order still
	// has status from (and userID, when not empty); otherwise it returns
	// models.ErrUpdateConflict.
	UpdateOrderStatus(ctx context.Context, id, userID string, from, to models.OrderStatus, at time.Time) error
}

// NotificationSink receives lifecycle events for operators.
type NotificationSink interface {
	OrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
}

// CancelResult describes an applied cancellation
type CancelResult struct {
	Order          *models.Order      `json:"order"`
	PreviousStatus models.OrderStatus `json:"previousStatus"`
	RestoredItems  int                `json:"restoredItems"`
}

// UpdateStatusRequest is the operator payload for advancing an order
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// OrderService governs order status transitions
type OrderService struct {
	orders    OrderStore
	inventory *InventoryClient
	sink      NotificationSink
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service. sink may be nil.
func NewOrderService(orders OrderStore, inventory *InventoryClient, sink NotificationSink) *OrderService {
	return &OrderService{
		orders:    orders,
		inventory: inventory,
		sink:      sink,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// CancelOrder cancels a customer's own order.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string) (*CancelResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, err := s.orders.GetUserOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	return s.cancel(ctx, order)
}

// cancel flips order to cancelled, then notifies and, if stock had been
// committed, restores it. Only the status flip can fail the call.
func (s *OrderService) cancel(ctx context.Context, order *models.Order) (*CancelResult, error) {
	previous := order.Status
	if !previous.Cancellable() {
		return nil, fmt.Errorf("order %s is %s: %w", order.ID, previous, models.ErrInvalidTransition)
	}

	now := s.now()
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, order.UserID, previous, models.OrderStatusCancelled, now); err != nil {
		if errors.Is(err, models.ErrUpdateConflict) {
			util.OrderTransitionConflictsTotal.Inc()
		}
		return nil, fmt.Errorf("failed to cancel order %s: %w", order.ID, err)
	}

	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = now
	util.OrdersCancelledTotal.WithLabelValues(string(previous)).Inc()
	util.OrderTransitionsTotal.WithLabelValues(string(previous), string(models.OrderStatusCancelled)).Inc()

	s.logger.Info("Order cancelled",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("previous_status", string(previous)))

	s.notifyCancelled(ctx, order, previous)

	restored := 0
	if previous == models.OrderStatusConfirmed {
		restored = s.inventory.RestoreStock(ctx, order)
	}

	return &CancelResult{
		Order:          order,
		PreviousStatus: previous,
		RestoredItems:  restored,
	}, nil
}

// notifyCancelled is best effort: failures are logged and counted.
func (s *OrderService) notifyCancelled(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	if s.sink == nil {
		return
	}

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: order.UpdatedAt,
		},
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		Total:          order.Total,
		PreviousStatus: previous,
	}

	if err := s.sink.OrderCancelled(ctx, event); err != nil {
		util.NotificationsFailedTotal.Inc()
		s.logger.Error("Failed to publish OrderCancelled notification",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}

// AdvanceStatus moves an order one step forward along the fulfilment path.
// Reaching confirmed commits the order's stock.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID string, next models.OrderStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AdvanceStatus")
	defer span.End()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if !previous.CanAdvanceTo(next) {
		return nil, fmt.Errorf("order %s cannot move from %s to %s: %w", order.ID, previous, next, models.ErrInvalidTransition)
	}

	now := s.now()
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, "", previous, next, now); err != nil {
		if errors.Is(err, models.ErrUpdateConflict) {
			util.OrderTransitionConflictsTotal.Inc()
		}
		return nil, fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}

	order.Status = next
	order.UpdatedAt = now
	util.OrderTransitionsTotal.WithLabelValues(string(previous), string(next)).Inc()

	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))

	if next == models.OrderStatusConfirmed {
		s.inventory.CommitStock(ctx, order)
	}

	return order, nil
}
