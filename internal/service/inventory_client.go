package service

import (
	"context"
	"errors"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// StockStore adjusts variant stock counters atomically.
type StockStore interface {
	// AdjustVariantStock adds delta to the stock of the (productID, size,
	// color) variant; models.ErrNotFound when no such variant exists.
	AdjustVariantStock(ctx context.Context, productID, size, color string, delta int) error
}

// InventoryClient applies an order's line items to variant stock
type InventoryClient struct {
	stock  StockStore
	logger *zap.Logger
}

// NewInventoryClient creates a new inventory client
func NewInventoryClient(stock StockStore) *InventoryClient {
	return &InventoryClient{
		stock:  stock,
		logger: util.GetLogger(),
	}
}

// RestoreStock gives back every line item of a cancelled order and returns
// how many items were restored.
func (ic *InventoryClient) RestoreStock(ctx context.Context, order *models.Order) int {
	ctx, span := util.StartSpan(ctx, "InventoryClient.RestoreStock")
	defer span.End()

	return ic.apply(ctx, order, 1, "restore")
}

// CommitStock deducts every line item of a confirmed order.
func (ic *InventoryClient) CommitStock(ctx context.Context, order *models.Order) int {
	ctx, span := util.StartSpan(ctx, "InventoryClient.CommitStock")
	defer span.End()

	return ic.apply(ctx, order, -1, "commit")
}

// apply updates each variant independently. A failed variant is logged and
// skipped; there is no retry and no rollback of the others.
func (ic *InventoryClient) apply(ctx context.Context, order *models.Order, sign int, op string) int {
	applied := 0
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			continue
		}

		err := ic.stock.AdjustVariantStock(ctx, item.ProductID, item.Size, item.Color, sign*item.Quantity)
		if err != nil {
			reason := op + "_error"
			if errors.Is(err, models.ErrNotFound) {
				reason = op + "_variant_missing"
			}
			util.StockAdjustmentsFailed.WithLabelValues(reason).Inc()
			ic.logger.Error("Failed to adjust variant stock",
				zap.String("op", op),
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.String("size", item.Size),
				zap.String("color", item.Color),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
			continue
		}
		applied++
	}

	ic.logger.Info("Variant stock adjusted",
		zap.String("op", op),
		zap.String("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.Int("applied", applied))
	return applied
}
