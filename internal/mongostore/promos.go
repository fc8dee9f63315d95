package mongostore

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// promoDoc is the stored shape of a promo code
type promoDoc struct {
	ID            string              `bson:"_id"`
	Code          string              `bson:"code"`
	Description   string              `bson:"description"`
	DiscountType  models.DiscountType `bson:"discount_type"`
	DiscountValue float64             `bson:"discount_value"`
	MaxDiscount   *float64            `bson:"max_discount,omitempty"`
	MinOrderValue float64             `bson:"min_order_value"`
	ValidFrom     time.Time           `bson:"valid_from"`
	ValidUntil    time.Time           `bson:"valid_until"`
	UsageLimit    int                 `bson:"usage_limit"`
	UsedCount     int                 `bson:"used_count"`
	IsActive      bool                `bson:"is_active"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

func (d *promoDoc) toModel() (*models.PromoCode, error) {
	policy, err := models.NewDiscountPolicy(d.DiscountType, d.DiscountValue, d.MaxDiscount)
	if err != nil {
		return nil, fmt.Errorf("promo code %s: %w", d.Code, err)
	}
	return &models.PromoCode{
		ID:            d.ID,
		Code:          d.Code,
		Description:   d.Description,
		Discount:      policy,
		MinOrderValue: d.MinOrderValue,
		ValidFrom:     d.ValidFrom,
		ValidUntil:    d.ValidUntil,
		UsageLimit:    d.UsageLimit,
		UsedCount:     d.UsedCount,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func newPromoDoc(p *models.PromoCode) *promoDoc {
	t, value, max := models.DiscountColumns(p.Discount)
	return &promoDoc{
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
	var doc promoDoc
	err := s.promos.FindOne(ctx, bson.M{"code": code, "is_active": true}).Decode(&doc)
	if err != nil {
		return nil, notFound(err, "promo code "+code)
	}
	return doc.toModel()
}

// CreatePromoCode inserts a promo code; the unique index on code rejects duplicates
func (s *Store) CreatePromoCode(ctx context.Context, promo *models.PromoCode) error {
	if promo.ID == "" {
		promo.ID = uuid.New().String()
	}

	_, err := s.promos.InsertOne(ctx, newPromoDoc(promo))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("promo code %s: %w", promo.Code, models.ErrDuplicatePromoCode)
	}
	if err != nil {
		return fmt.Errorf("failed to insert promo code: %w", err)
	}
	return nil
}

// DeactivatePromoCode flips the kill switch off
func (s *Store) DeactivatePromoCode(ctx context.Context, code string) error {
	res, err := s.promos.UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to deactivate promo code: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("promo code %s: %w", code, models.ErrNotFound)
	}
	return nil
}

// IncrementPromoUsage consumes one redemption if the code is active and not exhausted
func (s *Store) IncrementPromoUsage(ctx context.Context, code string) (bool, error) {
	filter := bson.M{
		"code":      code,
		"is_active": true,
		"$expr":     bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}},
	}
	update := bson.M{
		"$inc": bson.M{"used_count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	res, err := s.promos.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to increment promo usage: %w", err)
	}
	return res.ModifiedCount > 0, nil
}
