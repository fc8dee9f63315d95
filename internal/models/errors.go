package models

import (
	"errors"
	"fmt"
)

// Domain error kinds. Stores and services wrap these with context; the API
// layer maps them to status codes with errors.Is / errors.As.
var (
	ErrNotFound           = errors.New("not found")
	ErrExpired            = errors.New("promo code outside validity window")
	ErrUsageLimitExceeded = errors.New("promo code usage limit exceeded")
	ErrBelowMinimumOrder  = errors.New("order value below promo code minimum")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrUpdateConflict     = errors.New("order was modified concurrently")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicatePromoCode = errors.New("promo code already exists")
	ErrDuplicateCategory  = errors.New("category already exists")
)

// BelowMinimumOrderError carries the floor the order value failed to reach.
type BelowMinimumOrderError struct {
	MinOrderValue float64
	OrderValue    float64
}

func (e *BelowMinimumOrderError) Error() string {
	return fmt.Sprintf("order value %.2f below minimum %.2f", e.OrderValue, e.MinOrderValue)
}

// Is lets errors.Is(err, ErrBelowMinimumOrder) match.
func (e *BelowMinimumOrderError) Is(target error) bool {
	return target == ErrBelowMinimumOrder
}
