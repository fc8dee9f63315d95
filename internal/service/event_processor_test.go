package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func placedEvent(id, code string) *models.OrderPlacedEvent {
	return &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{EventID: id, EventType: models.EventTypeOrderPlaced, Timestamp: time.Now()},
		OrderID:   "o1",
		PromoCode: code,
		Total:     900,
	}
}

func newProcessorFixture() (*EventProcessor, *fakeEventStore, *fakeNotificationStore, *mockRedeemer) {
	events := &fakeEventStore{processed: map[string]bool{}}
	notifications := &fakeNotificationStore{}
	redeemer := &mockRedeemer{}
	return NewEventProcessor(events, notifications, redeemer), events, notifications, redeemer
}

func TestHandleOrderPlaced_RedeemsOncePerEvent(t *testing.T) {
	p, events, _, redeemer := newProcessorFixture()
	redeemer.On("Redeem", mock.Anything, "SAVE20").Return(nil).Once()

	require.NoError(t, p.HandleOrderPlaced(context.Background(), placedEvent("evt-1", "SAVE20")))
	require.NoError(t, p.HandleOrderPlaced(context.Background(), placedEvent("evt-1", "SAVE20")))

	redeemer.AssertNumberOfCalls(t, "Redeem", 1)
	assert.True(t, events.processed["evt-1"])
}

func TestHandleOrderPlaced_NoPromoCode(t *testing.T) {
	p, events, _, redeemer := newProcessorFixture()

	require.NoError(t, p.HandleOrderPlaced(context.Background(), placedEvent("evt-1", "")))

	redeemer.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything)
	assert.Empty(t, events.processed)
}

func TestHandleOrderPlaced_RejectedRedemptionIsAcknowledged(t *testing.T) {
	p, events, _, redeemer := newProcessorFixture()
	redeemer.On("Redeem", mock.Anything, "SAVE20").
		Return(fmt.Errorf("promo code SAVE20: %w", models.ErrUsageLimitExceeded))

	assert.NoError(t, p.HandleOrderPlaced(context.Background(), placedEvent("evt-1", "SAVE20")))
	assert.True(t, events.processed["evt-1"])
}

func TestHandleOrderPlaced_TransientErrorIsRetried(t *testing.T) {
	p, events, _, redeemer := newProcessorFixture()
	redeemer.On("Redeem", mock.Anything, "SAVE20").Return(errors.New("timeout")).Once()
	redeemer.On("Redeem", mock.Anything, "SAVE20").Return(nil).Once()

	assert.Error(t, p.HandleOrderPlaced(context.Background(), placedEvent("evt-1", "SAVE20")))
	assert.False(t, events.processed["evt-1"])

	assert.NoError(t, p.HandleOrderPlaced(context.Background(), placedEvent("evt-1", "SAVE20")))
	assert.True(t, events.processed["evt-1"])
	redeemer.AssertExpectations(t)
}

func TestHandleOrderPlaced_EventStoreError(t *testing.T) {
	p, events, _, redeemer := newProcessorFixture()
	events.err = errors.New("db down")

	assert.Error(t, p.HandleOrderPlaced(context.Background(), placedEvent("evt-1", "SAVE20")))
	redeemer.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything)
}

func TestHandleOrderPlaced_MarkFailureIsReturned(t *testing.T) {
	p, events, _, redeemer := newProcessorFixture()
	events.markErr = errors.New("write timeout")
	redeemer.On("Redeem", mock.Anything, "SAVE20").Return(nil).Once()

	err := p.HandleOrderPlaced(context.Background(), placedEvent("evt-1", "SAVE20"))
	assert.ErrorIs(t, err, events.markErr)
	assert.False(t, events.processed["evt-1"])
}

func TestHandleOrderCancelled_AppendsNotificationOnce(t *testing.T) {
	p, _, notifications, _ := newProcessorFixture()
	event := &models.OrderCancelledEvent{
		BaseEvent:   models.BaseEvent{EventID: "evt-7", EventType: models.EventTypeOrderCancelled, Timestamp: time.Now()},
		OrderID:     "o1",
		OrderNumber: "ORD-1001",
		Total:       1000,
	}

	require.NoError(t, p.HandleOrderCancelled(context.Background(), event))
	require.NoError(t, p.HandleOrderCancelled(context.Background(), event))

	require.Len(t, notifications.entries, 1)
	n := notifications.entries[0]
	assert.Equal(t, models.NotificationOrderCancelled, n.Type)
	assert.Equal(t, "ORD-1001", n.OrderNumber)
	assert.Equal(t, 1000.0, n.Total)
	assert.False(t, n.Read)
}

func TestHandleOrderCancelled_StoreError(t *testing.T) {
	p, _, notifications, _ := newProcessorFixture()
	notifications.err = errors.New("db down")

	err := p.HandleOrderCancelled(context.Background(), &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-8"},
	})
	assert.Error(t, err)
}

func TestStoreSink(t *testing.T) {
	store := &fakeNotificationStore{}
	sink := NewStoreSink(store)

	err := sink.OrderCancelled(context.Background(), &models.OrderCancelledEvent{
		BaseEvent:   models.BaseEvent{EventID: "evt-1"},
		OrderNumber: "ORD-1",
	})
	require.NoError(t, err)
	require.Len(t, store.entries, 1)
	assert.Equal(t, "ORD-1", store.entries[0].OrderNumber)
}
