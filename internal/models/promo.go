package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DiscountType names how a promo code computes its discount.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// DiscountPolicy is either a PercentageDiscount or a FlatDiscount.
type DiscountPolicy interface {
	Type() DiscountType
	isDiscountPolicy()
}

// PercentageDiscount takes Percent of the order value, optionally capped.
type PercentageDiscount struct {
	Percent     float64
	MaxDiscount *float64
}

func (PercentageDiscount) Type() DiscountType { return DiscountPercentage }
func (PercentageDiscount) isDiscountPolicy()  {}

// FlatDiscount takes a fixed currency amount off the order.
type FlatDiscount struct {
	Amount float64
}

func (FlatDiscount) Type() DiscountType { return DiscountFlat }
func (FlatDiscount) isDiscountPolicy()  {}

// NewDiscountPolicy builds the policy variant from its stored columns.
// maxDiscount is dropped for flat codes.
func NewDiscountPolicy(t DiscountType, value float64, maxDiscount *float64) (DiscountPolicy, error) {
	switch t {
	case DiscountPercentage:
		return PercentageDiscount{Percent: value, MaxDiscount: maxDiscount}, nil
	case DiscountFlat:
		return FlatDiscount{Amount: value}, nil
	default:
		return nil, fmt.Errorf("unknown discount type %q", t)
	}
}

// DiscountColumns flattens a policy back into its stored columns.
func DiscountColumns(p DiscountPolicy) (DiscountType, float64, *float64) {
	switch d := p.(type) {
	case PercentageDiscount:
		return DiscountPercentage, d.Percent, d.MaxDiscount
	case FlatDiscount:
		return DiscountFlat, d.Amount, nil
	default:
		return "", 0, nil
	}
}

// CanonicalCode normalizes a user-supplied promo code for lookup and storage.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromoCode is an operator-defined discount voucher.
type PromoCode struct {
	ID            string
	Code          string
	Description   string
	Discount      DiscountPolicy
	MinOrderValue float64
	ValidFrom     time.Time
	ValidUntil    time.Time
	UsageLimit    int
	UsedCount     int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InWindow reports whether t lies inside [ValidFrom, ValidUntil].
func (p *PromoCode) InWindow(t time.Time) bool {
	return !t.Before(p.ValidFrom) && !t.After(p.ValidUntil)
}

// Exhausted reports whether every allowed redemption has been used.
func (p *PromoCode) Exhausted() bool {
	return p.UsedCount >= p.UsageLimit
}

type promoCodeJSON struct {
	ID            string       `json:"id"`
	Code          string       `json:"code"`
	Description   string       `json:"description"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue float64      `json:"discountValue"`
	MaxDiscount   *float64     `json:"maxDiscount,omitempty"`
	MinOrderValue float64      `json:"minOrderValue"`
	ValidFrom     time.Time    `json:"validFrom"`
	ValidUntil    time.Time    `json:"validUntil"`
	UsageLimit    int          `json:"usageLimit"`
	UsedCount     int          `json:"usedCount"`
	IsActive      bool         `json:"isActive"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// MarshalJSON renders the policy as flat discountType/discountValue fields.
func (p PromoCode) MarshalJSON() ([]byte, error) {
	t, v, max := DiscountColumns(p.Discount)
	return json.Marshal(promoCodeJSON{
		ID:            p.ID,
		Code:          p.Code,
		Description:   p.Description,
		DiscountType:  t,
		DiscountValue: v,
		MaxDiscount:   max,
		MinOrderValue: p.MinOrderValue,
		ValidFrom:     p.ValidFrom,
		ValidUntil:    p.ValidUntil,
		UsageLimit:    p.UsageLimit,
		UsedCount:     p.UsedCount,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	})
}
