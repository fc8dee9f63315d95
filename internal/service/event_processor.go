package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// EventStore records which events were already handled.
type EventStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// NotificationStore is the append-only notification log.
type NotificationStore interface {
	// AppendNotification ignores a second entry for the same event id.
	AppendNotification(ctx context.Context, n *models.Notification) error
}

// Redeemer commits promo code redemptions.
type Redeemer interface {
	Redeem(ctx context.Context, code string) error
}

// EventProcessor handles order events consumed from the broker
type EventProcessor struct {
	events        EventStore
	notifications NotificationStore
	promos        Redeemer
	logger        *zap.Logger
}

// NewEventProcessor creates a new event processor
func NewEventProcessor(events EventStore, notifications NotificationStore, promos Redeemer) *EventProcessor {
	return &EventProcessor{
		events:        events,
		notifications: notifications,
		promos:        promos,
		logger:        util.GetLogger(),
	}
}

// HandleOrderPlaced redeems the order's promo code once per event
func (p *EventProcessor) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "EventProcessor.HandleOrderPlaced")
	defer span.End()

	if event.PromoCode == "" {
		return nil
	}

	processed, err := p.events.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		p.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := p.promos.Redeem(ctx, event.PromoCode); err != nil {
		if !errors.Is(err, models.ErrUsageLimitExceeded) && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		// The order exists already; a rejected redemption is logged, not retried.
		p.logger.Warn("Promo code redemption rejected",
			zap.String("order_id", event.OrderID),
			zap.String("code", event.PromoCode),
			zap.Error(err))
	}

	if err := p.events.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// HandleOrderCancelled appends the operator notification for a cancellation
func (p *EventProcessor) HandleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	ctx, span := util.StartSpan(ctx, "EventProcessor.HandleOrderCancelled")
	defer span.End()

	if err := p.notifications.AppendNotification(ctx, event.Notification()); err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}

	p.logger.Info("Cancellation notification recorded",
		zap.String("order_id", event.OrderID),
		zap.String("order_number", event.OrderNumber))
	return nil
}

// StoreSink writes notifications straight to the store; used when no broker
// is configured.
type StoreSink struct {
	store NotificationStore
}

// NewStoreSink creates a sink backed by the notification store
func NewStoreSink(store NotificationStore) *StoreSink {
	return &StoreSink{store: store}
}

// OrderCancelled implements NotificationSink
func (s *StoreSink) OrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return s.store.AppendNotification(ctx, event.Notification())
}
