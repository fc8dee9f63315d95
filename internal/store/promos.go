package store

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/google/uuid"
)

const promoColumns = `id, code, description, discount_type, discount_value, max_discount, min_order_value,
	valid_from, valid_until, usage_limit, used_count, is_active, created_at, updated_at`

// promoRow mirrors the promo_codes table
type promoRow struct {
	ID            string              `db:"id"`
	Code          string              `db:"code"`
	Description   string              `db:"description"`
	DiscountType  models.DiscountType `db:"discount_type"`
	DiscountValue float64             `db:"discount_value"`
	MaxDiscount   *float64            `db:"max_discount"`
	MinOrderValue float64             `db:"min_order_value"`
	ValidFrom     time.Time           `db:"valid_from"`
	ValidUntil    time.Time           `db:"valid_until"`
	UsageLimit    int                 `db:"usage_limit"`
	UsedCount     int                 `db:"used_count"`
	IsActive      bool                `db:"is_active"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

func (r *promoRow) toModel() (*models.PromoCode, error) {
	policy, err := models.NewDiscountPolicy(r.DiscountType, r.DiscountValue, r.MaxDiscount)
	if err != nil {
		return nil, fmt.Errorf("promo code %s: %w", r.Code, err)
	}
	return &models.PromoCode{
		ID:            r.ID,
		Code:          r.Code,
		Description:   r.Description,
		Discount:      policy,
		MinOrderValue: r.MinOrderValue,
		ValidFrom:     r.ValidFrom,
		ValidUntil:    r.ValidUntil,
		UsageLimit:    r.UsageLimit,
		UsedCount:     r.UsedCount,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

func newPromoRow(p *models.PromoCode) *promoRow {
	t, value, max := models.DiscountColumns(p.Discount)
	return &promoRow{
		ID:            p.ID,
		Code:          p.Code,
		Description:   p.Description,
		DiscountType:  t,
		DiscountValue: value,
		MaxDiscount:   max,
		MinOrderValue: p.MinOrderValue,
		ValidFrom:     p.ValidFrom,
		ValidUntil:    p.ValidUntil,
		UsageLimit:    p.UsageLimit,
		UsedCount:     p.UsedCount,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// GetActivePromoCode retrieves an active promo code by its canonical code
func (s *Store) GetActivePromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var row promoRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+promoColumns+" FROM promo_codes WHERE code = $1 AND is_active", code)
	if err != nil {
		return nil, notFound(err, "promo code "+code)
	}
	return row.toModel()
}

// CreatePromoCode inserts a promo code; the unique index on code rejects duplicates
func (s *Store) CreatePromoCode(ctx context.Context, promo *models.PromoCode) error {
	if promo.ID == "" {
		promo.ID = uuid.New().String()
	}

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO promo_codes (`+promoColumns+`)
		 VALUES (:id, :code, :description, :discount_type, :discount_value, :max_discount, :min_order_value,
		         :valid_from, :valid_until, :usage_limit, :used_count, :is_active, :created_at, :updated_at)`,
		newPromoRow(promo))
	if isUniqueViolation(err) {
		return fmt.Errorf("promo code %s: %w", promo.Code, models.ErrDuplicatePromoCode)
	}
	if err != nil {
		return fmt.Errorf("failed to insert promo code: %w", err)
	}
	return nil
}

// DeactivatePromoCode flips the kill switch off
func (s *Store) DeactivatePromoCode(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE promo_codes SET is_active = FALSE, updated_at = NOW() WHERE code = $1", code)
	if err != nil {
		return fmt.Errorf("failed to deactivate promo code: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("promo code %s: %w", code, models.ErrNotFound)
	}
	return nil
}

// IncrementPromoUsage consumes one redemption if the code is active and not exhausted
func (s *Store) IncrementPromoUsage(ctx context.Context, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE promo_codes SET used_count = used_count + 1, updated_at = NOW()
		 WHERE code = $1 AND is_active AND used_count < usage_limit`, code)
	if err != nil {
		return false, fmt.Errorf("failed to increment promo usage: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
