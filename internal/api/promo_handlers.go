package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"storefront-service/internal/models"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type validatePromoRequest struct {
	Code       string   `json:"code"`
	OrderValue *float64 `json:"orderValue"`
}

// validatePromoCode handles POST /promo-codes/validate
func (h *Handler) validatePromoCode(c *gin.Context) {
	var req validatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" || req.OrderValue == nil || *req.OrderValue == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code and order value are required"})
		return
	}

	result, err := h.promoService.Validate(c.Request.Context(), req.Code, *req.OrderValue)
	if err != nil {
		h.writePromoError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) writePromoError(c *gin.Context, err error) {
	var below *models.BelowMinimumOrderError

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid promo code"})
	case errors.Is(err, models.ErrExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "This promo code has expired or is not yet valid"})
	case errors.Is(err, models.ErrUsageLimitExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": "This promo code has reached its usage limit"})
	case errors.As(err, &below):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Minimum order value of %s%s required",
				h.currencySymbol, strconv.FormatFloat(below.MinOrderValue, 'f', -1, 64)),
			"minOrderValue": below.MinOrderValue,
		})
	case errors.Is(err, service.ErrInvalidOrderValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order value"})
	default:
		h.logger.Error("Failed to validate promo code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate promo code"})
	}
}

// createPromoCode handles POST /admin/promo-codes
func (h *Handler) createPromoCode(c *gin.Context) {
	var req service.CreatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	promo, err := h.promoService.CreatePromoCode(c.Request.Context(), &req)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, promo)
	case errors.Is(err, models.ErrDuplicatePromoCode):
		c.JSON(http.StatusConflict, gin.H{"error": "Promo code already exists"})
	case errors.Is(err, service.ErrInvalidPromoDefinition):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid promo code definition",
			"details": err.Error(),
		})
	default:
		h.logger.Error("Failed to create promo code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create promo code"})
	}
}

// deactivatePromoCode handles PATCH /admin/promo-codes/:code/deactivate
func (h *Handler) deactivatePromoCode(c *gin.Context) {
	err := h.promoService.DeactivatePromoCode(c.Request.Context(), c.Param("code"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Promo code deactivated"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid promo code"})
	default:
		h.logger.Error("Failed to deactivate promo code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate promo code"})
	}
}
