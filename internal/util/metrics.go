package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PromoValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_validations_total",
		Help: "Total number of promo code validations by result",
	}, []string{"result"})

	PromoRedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_redemptions_total",
		Help: "Total number of promo code redemption attempts by result",
	}, []string{"result"})

	OrdersCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders by status before cancellation",
	}, []string{"previous_status"})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Total number of applied order status transitions",
	}, []string{"from", "to"})

	OrderTransitionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_status_transition_conflicts_total",
		Help: "Total number of status updates lost to a concurrent modification",
	})

	StockAdjustmentsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_failed_total",
		Help: "Total number of variant stock updates that failed",
	}, []string{"reason"})

	NotificationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of lifecycle notifications that could not be delivered",
	})

	CategoryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "category_cache_lookups_total",
		Help: "Category listing cache lookups by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
