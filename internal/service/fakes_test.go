package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/mock"
)

// fakePromoStore keeps promo codes in memory with the same conditional
// increment semantics as the real stores.
type fakePromoStore struct {
	mu         sync.Mutex
	promos     map[string]*models.PromoCode
	increments int
	err        error
}

func newFakePromoStore(promos ...*models.PromoCode) *fakePromoStore {
	s := &fakePromoStore{promos: map[string]*models.PromoCode{}}
	for _, p := range promos {
		s.promos[p.Code] = p
	}
	return s
}

func (s *fakePromoStore) GetActivePromoCode(_ context.Context, code string) (*models.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.promos[code]
	if !ok || !p.IsActive {
		return nil, fmt.Errorf("promo code %s: %w", code, models.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *fakePromoStore) CreatePromoCode(_ context.Context, promo *models.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.promos[promo.Code]; ok {
		return models.ErrDuplicatePromoCode
	}
	s.promos[promo.Code] = promo
	return nil
}

func (s *fakePromoStore) DeactivatePromoCode(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[code]
	if !ok {
		return models.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (s *fakePromoStore) IncrementPromoUsage(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.increments++
	if s.err != nil {
		return false, s.err
	}
	p, ok := s.promos[code]
	if !ok || !p.IsActive || p.UsedCount >= p.UsageLimit {
		return false, nil
	}
	p.UsedCount++
	return true, nil
}

// fakeOrderStore applies status updates as compare-and-swap.
type fakeOrderStore struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	updateErr error
}

func newFakeOrderStore(orders ...*models.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: map[string]*models.Order{}}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakeOrderStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) GetUserOrder(ctx context.Context, id, userID string) (*models.Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, models.ErrNotFound
	}
	return o, nil
}

func (s *fakeOrderStore) UpdateOrderStatus(_ context.Context, id, userID string, from, to models.OrderStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	o, ok := s.orders[id]
	if !ok || o.Status != from || (userID != "" && o.UserID != userID) {
		return models.ErrUpdateConflict
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}

func (s *fakeOrderStore) status(id string) models.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Status
}

type variantKey struct{ product, size, color string }

// fakeStockStore holds variant stock counters; listed keys fail.
type fakeStockStore struct {
	mu      sync.Mutex
	stock   map[variantKey]int
	failing map[variantKey]error
	calls   int
}

func newFakeStockStore() *fakeStockStore {
	return &fakeStockStore{stock: map[variantKey]int{}, failing: map[variantKey]error{}}
}

func (s *fakeStockStore) AdjustVariantStock(_ context.Context, productID, size, color string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	key := variantKey{productID, size, color}
	if err := s.failing[key]; err != nil {
		return err
	}
	if _, ok := s.stock[key]; !ok {
		return models.ErrNotFound
	}
	s.stock[key] += delta
	return nil
}

func (s *fakeStockStore) get(productID, size, color string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[variantKey{productID, size, color}]
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) OrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockRedeemer struct {
	mock.Mock
}

func (m *mockRedeemer) Redeem(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type fakeEventStore struct {
	processed map[string]bool
	err       error
	markErr   error
}

func (s *fakeEventStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.processed[eventID], nil
}

func (s *fakeEventStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.processed[eventID] = true
	return nil
}

type fakeNotificationStore struct {
	entries []*models.Notification
	err     error
}

func (s *fakeNotificationStore) AppendNotification(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	for _, e := range s.entries {
		if n.EventID != "" && e.EventID == n.EventID {
			return nil
		}
	}
	s.entries = append(s.entries, n)
	return nil
}
