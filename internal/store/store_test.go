package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupTestStore(t *testing.T) *Store {
	if testing.Short() {
		t.Skip("Integration test - requires docker")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront_test"),
		postgres.WithUsername("app"),
		postgres.WithPassword("secret"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func seedOrder(t *testing.T, s *Store, status models.OrderStatus) *models.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	order := &models.Order{
		ID:          uuid.New().String(),
		OrderNumber: "ORD-" + uuid.New().String()[:8],
		UserID:      "user-1",
		Status:      status,
		Subtotal:    900,
		Shipping:    100,
		Total:       1000,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items: []models.OrderItem{
			{ProductID: "p1", Size: "M", Color: "black", Quantity: 2, UnitPrice: 300, ItemTotal: 600},
			{ProductID: "p1", Size: "L", Color: "white", Quantity: 1, UnitPrice: 300, ItemTotal: 300},
		},
	}
	require.NoError(t, s.CreateOrder(context.Background(), order))
	return order
}

func TestGetUserOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	order := seedOrder(t, s, models.OrderStatusPending)

	got, err := s.GetUserOrder(ctx, order.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Len(t, got.Items, 2)

	_, err = s.GetUserOrder(ctx, order.ID, "someone-else")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateOrderStatus_CompareAndSwap(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	order := seedOrder(t, s, models.OrderStatusConfirmed)

	err := s.UpdateOrderStatus(ctx, order.ID, "user-1", models.OrderStatusConfirmed, models.OrderStatusCancelled, time.Now())
	require.NoError(t, err)

	err = s.UpdateOrderStatus(ctx, order.ID, "user-1", models.OrderStatusConfirmed, models.OrderStatusCancelled, time.Now())
	assert.ErrorIs(t, err, models.ErrUpdateConflict)

	got, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
}

func TestUpdateOrderStatus_ConcurrentCancelsOnlyOneWins(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	order := seedOrder(t, s, models.OrderStatusPending)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.UpdateOrderStatus(ctx, order.ID, "user-1", models.OrderStatusPending, models.OrderStatusCancelled, time.Now())
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, models.ErrUpdateConflict)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestAdjustVariantStock(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	product := &models.Product{
		ID:        "p1",
		Name:      "Custom Tee",
		CreatedAt: time.Now(),
		Variants:  []models.ProductVariant{{Size: "M", Color: "black", Stock: 5}},
	}
	require.NoError(t, s.CreateProduct(ctx, product))

	require.NoError(t, s.AdjustVariantStock(ctx, "p1", "M", "black", 3))
	require.NoError(t, s.AdjustVariantStock(ctx, "p1", "M", "black", -2))

	got, err := s.GetProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, 6, got.Variants[0].Stock)

	err = s.AdjustVariantStock(ctx, "p1", "XXL", "black", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPromoCodeLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	max := 100.0

	promo := &models.PromoCode{
		Code:          "SAVE20",
		Description:   "20% off",
		Discount:      models.PercentageDiscount{Percent: 20, MaxDiscount: &max},
		MinOrderValue: 500,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		UsageLimit:    2,
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, s.CreatePromoCode(ctx, promo))

	err := s.CreatePromoCode(ctx, &models.PromoCode{
		Code: "SAVE20", Discount: models.FlatDiscount{Amount: 1}, UsageLimit: 1,
		ValidFrom: time.Now(), ValidUntil: time.Now(), IsActive: true,
	})
	assert.ErrorIs(t, err, models.ErrDuplicatePromoCode)

	got, err := s.GetActivePromoCode(ctx, "SAVE20")
	require.NoError(t, err)
	assert.Equal(t, models.PercentageDiscount{Percent: 20, MaxDiscount: &max}, got.Discount)

	applied, err := s.IncrementPromoUsage(ctx, "SAVE20")
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = s.IncrementPromoUsage(ctx, "SAVE20")
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = s.IncrementPromoUsage(ctx, "SAVE20")
	require.NoError(t, err)
	assert.False(t, applied)

	require.NoError(t, s.DeactivatePromoCode(ctx, "SAVE20"))
	_, err = s.GetActivePromoCode(ctx, "SAVE20")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, s.DeactivatePromoCode(ctx, "NOPE"), models.ErrNotFound)
}

func TestNotificationsAndEvents(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	n := &models.Notification{
		EventID:     "evt-1",
		Type:        models.NotificationOrderCancelled,
		OrderID:     "o1",
		OrderNumber: "ORD-1",
		Total:       1000,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, s.AppendNotification(ctx, n))
	require.NoError(t, s.AppendNotification(ctx, &models.Notification{EventID: "evt-1", Type: n.Type, CreatedAt: time.Now()}))

	list, err := s.ListNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ORD-1", list[0].OrderNumber)

	processed, err := s.IsEventProcessed(ctx, "evt-9")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, s.MarkEventProcessed(ctx, "evt-9", models.EventTypeOrderPlaced))
	require.NoError(t, s.MarkEventProcessed(ctx, "evt-9", models.EventTypeOrderPlaced))

	processed, err = s.IsEventProcessed(ctx, "evt-9")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestCategories(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCategory(ctx, &models.Category{ID: "c1", Name: "Mugs", Slug: "mugs", IsActive: true, CreatedAt: time.Now()}))
	require.NoError(t, s.CreateCategory(ctx, &models.Category{ID: "c2", Name: "Hoodies", Slug: "hoodies", IsActive: false, CreatedAt: time.Now()}))

	err := s.CreateCategory(ctx, &models.Category{ID: "c3", Name: "Mugs", Slug: "mugs", IsActive: true, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, models.ErrDuplicateCategory)

	list, err := s.ListActiveCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mugs", list[0].Name)
}
