package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	minCodeLength = 3
	maxCodeLength = 64
)

var (
	ErrInvalidOrderValue      = errors.New("order value must be a positive finite number")
	ErrInvalidPromoDefinition = errors.New("invalid promo code definition")
)

// PromoStore is the persistence PromoService needs.
type PromoStore interface {
	// GetActivePromoCode returns models.ErrNotFound for missing or inactive codes.
	GetActivePromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	// CreatePromoCode returns models.ErrDuplicatePromoCode on a code clash.
	CreatePromoCode(ctx context.Context, promo *models.PromoCode) error
	DeactivatePromoCode(ctx context.Context, code string) error
	// IncrementPromoUsage bumps used_count only while the code is active and
	// below its limit; applied is false when nothing matched.
	IncrementPromoUsage(ctx context.Context, code string) (applied bool, err error)
}

// PromoValidation is the verdict returned to checkout.
type PromoValidation struct {
	Valid       bool    `json:"valid"`
	Discount    float64 `json:"discount"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
}

// CreatePromoCodeRequest is the operator payload for a new promo code
type CreatePromoCodeRequest struct {
	Code          string              `json:"code" binding:"required,min=3,max=64"`
	Description   string              `json:"description" binding:"max=255"`
	DiscountType  models.DiscountType `json:"discountType" binding:"required,oneof=percentage flat"`
	DiscountValue float64             `json:"discountValue" binding:"gte=0"`
	MaxDiscount   *float64            `json:"maxDiscount" binding:"omitempty,gte=0"`
	MinOrderValue float64             `json:"minOrderValue" binding:"gte=0"`
	ValidFrom     time.Time           `json:"validFrom" binding:"required"`
	ValidUntil    time.Time           `json:"validUntil" binding:"required"`
	UsageLimit    int                 `json:"usageLimit" binding:"required,gte=1"`
	IsActive      *bool               `json:"isActive"`
}

// PromoService validates, redeems and administers promo codes
type PromoService struct {
	store  PromoStore
	logger *zap.Logger
	now    func() time.Time
}

// NewPromoService creates a new promo service
func NewPromoService(store PromoStore) *PromoService {
	return &PromoService{
		store:  store,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// Validate checks code against orderValue and computes the discount. It never
// mutates the promo code; redemption happens through Redeem.
func (s *PromoService) Validate(ctx context.Context, code string, orderValue float64) (*PromoValidation, error) {
	ctx, span := util.StartSpan(ctx, "PromoService.Validate")
	defer span.End()

	if math.IsNaN(orderValue) || math.IsInf(orderValue, 0) || orderValue <= 0 {
		return nil, ErrInvalidOrderValue
	}

	canonical := models.CanonicalCode(code)
	promo, err := s.store.GetActivePromoCode(ctx, canonical)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			util.PromoValidationsTotal.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	if err := checkPromo(promo, orderValue, s.now()); err != nil {
		util.PromoValidationsTotal.WithLabelValues(validationOutcome(err)).Inc()
		return nil, err
	}

	discount := CalculateDiscount(promo.Discount, orderValue)
	util.PromoValidationsTotal.WithLabelValues("valid").Inc()

	s.logger.Debug("Promo code validated",
		zap.String("code", promo.Code),
		zap.Float64("order_value", orderValue),
		zap.Float64("discount", discount))

	return &PromoValidation{
		Valid:       true,
		Discount:    discount,
		Code:        promo.Code,
		Description: promo.Description,
	}, nil
}

// checkPromo applies the eligibility rules in order, stopping at the first
// failure.
func checkPromo(promo *models.PromoCode, orderValue float64, now time.Time) error {
	if !promo.InWindow(now) {
		return fmt.Errorf("promo code %s: %w", promo.Code, models.ErrExpired)
	}
	if promo.Exhausted() {
		return fmt.Errorf("promo code %s: %w", promo.Code, models.ErrUsageLimitExceeded)
	}
	if orderValue < promo.MinOrderValue {
		return &models.BelowMinimumOrderError{
			MinOrderValue: promo.MinOrderValue,
			OrderValue:    orderValue,
		}
	}
	return nil
}

func validationOutcome(err error) string {
	switch {
	case errors.Is(err, models.ErrExpired):
		return "expired"
	case errors.Is(err, models.ErrUsageLimitExceeded):
		return "usage_limit"
	case errors.Is(err, models.ErrBelowMinimumOrder):
		return "below_minimum"
	default:
		return "error"
	}
}

// CalculateDiscount returns the discount policy yields on orderValue, never
// more than orderValue, rounded half away from zero to cents.
func CalculateDiscount(policy models.DiscountPolicy, orderValue float64) float64 {
	value := decimal.NewFromFloat(orderValue)
	discount := decimal.Zero

	switch p := policy.(type) {
	case models.PercentageDiscount:
		discount = value.Mul(decimal.NewFromFloat(p.Percent)).Div(decimal.NewFromInt(100))
		if p.MaxDiscount != nil && *p.MaxDiscount > 0 {
			discount = decimal.Min(discount, decimal.NewFromFloat(*p.MaxDiscount))
		}
	case models.FlatDiscount:
		discount = decimal.NewFromFloat(p.Amount)
	}

	discount = decimal.Max(decimal.Min(discount, value), decimal.Zero)
	return discount.Round(2).InexactFloat64()
}

// Redeem records one use of code. Call it once per successfully placed order.
func (s *PromoService) Redeem(ctx context.Context, code string) error {
	ctx, span := util.StartSpan(ctx, "PromoService.Redeem")
	defer span.End()

	canonical := models.CanonicalCode(code)
	applied, err := s.store.IncrementPromoUsage(ctx, canonical)
	if err != nil {
		util.PromoRedemptionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to redeem promo code %s: %w", canonical, err)
	}
	if applied {
		util.PromoRedemptionsTotal.WithLabelValues("redeemed").Inc()
		s.logger.Info("Promo code redeemed", zap.String("code", canonical))
		return nil
	}

	// Nothing matched: either the code is gone or it is exhausted.
	if _, err := s.store.GetActivePromoCode(ctx, canonical); err != nil {
		util.PromoRedemptionsTotal.WithLabelValues("not_found").Inc()
		return err
	}
	util.PromoRedemptionsTotal.WithLabelValues("usage_limit").Inc()
	return fmt.Errorf("promo code %s: %w", canonical, models.ErrUsageLimitExceeded)
}

// CreatePromoCode validates and stores a new promo code
func (s *PromoService) CreatePromoCode(ctx context.Context, req *CreatePromoCodeRequest) (*models.PromoCode, error) {
	ctx, span := util.StartSpan(ctx, "PromoService.CreatePromoCode")
	defer span.End()

	code := models.CanonicalCode(req.Code)
	if n := utf8.RuneCountInString(code); n < minCodeLength || n > maxCodeLength {
		return nil, fmt.Errorf("%w: code must be %d to %d characters", ErrInvalidPromoDefinition, minCodeLength, maxCodeLength)
	}

	policy, err := buildPolicy(req)
	if err != nil {
		return nil, err
	}
	if req.ValidUntil.Before(req.ValidFrom) {
		return nil, fmt.Errorf("%w: validUntil precedes validFrom", ErrInvalidPromoDefinition)
	}
	if req.UsageLimit < 1 {
		return nil, fmt.Errorf("%w: usageLimit must be at least 1", ErrInvalidPromoDefinition)
	}

	now := s.now()
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	promo := &models.PromoCode{
		ID:            uuid.New().String(),
		Code:          code,
		Description:   req.Description,
		Discount:      policy,
		MinOrderValue: req.MinOrderValue,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		UsageLimit:    req.UsageLimit,
		IsActive:      active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreatePromoCode(ctx, promo); err != nil {
		return nil, err
	}

	s.logger.Info("Promo code created",
		zap.String("code", promo.Code),
		zap.String("discount_type", string(req.DiscountType)))
	return promo, nil
}

func buildPolicy(req *CreatePromoCodeRequest) (models.DiscountPolicy, error) {
	if req.DiscountValue < 0 {
		return nil, fmt.Errorf("%w: discountValue must not be negative", ErrInvalidPromoDefinition)
	}
	switch req.DiscountType {
	case models.DiscountPercentage:
		if req.DiscountValue > 100 {
			return nil, fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidPromoDefinition)
		}
		if req.MaxDiscount != nil && *req.MaxDiscount < 0 {
			return nil, fmt.Errorf("%w: maxDiscount must not be negative", ErrInvalidPromoDefinition)
		}
	case models.DiscountFlat:
		if req.MaxDiscount != nil {
			return nil, fmt.Errorf("%w: maxDiscount applies to percentage codes only", ErrInvalidPromoDefinition)
		}
	default:
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrInvalidPromoDefinition, req.DiscountType)
	}
	return models.NewDiscountPolicy(req.DiscountType, req.DiscountValue, req.MaxDiscount)
}

// DeactivatePromoCode retires a promo code without deleting it
func (s *PromoService) DeactivatePromoCode(ctx context.Context, code string) error {
	ctx, span := util.StartSpan(ctx, "PromoService.DeactivatePromoCode")
	defer span.End()

	canonical := models.CanonicalCode(code)
	if err := s.store.DeactivatePromoCode(ctx, canonical); err != nil {
		return err
	}

	s.logger.Info("Promo code deactivated", zap.String("code", canonical))
	return nil
}
