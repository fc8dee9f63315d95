package mongostore

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateOrder inserts an order document with embedded items
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by its storage id
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, notFound(err, "order "+id)
	}
	return &order, nil
}

// GetUserOrder retrieves an order only if it belongs to userID
func (s *Store) GetUserOrder(ctx context.Context, id, userID string) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&order)
	if err != nil {
		return nil, notFound(err, "order "+id)
	}
	return &order, nil
}

// UpdateOrderStatus sets the new status only while the document still holds
// status from, in a single UpdateOne.
func (s *Store) UpdateOrderStatus(ctx context.Context, id, userID string, from, to models.OrderStatus, at time.Time) error {
	filter := bson.M{"_id": id, "status": from}
	if userID != "" {
		filter["user_id"] = userID
	}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": at}}

	res, err := s.orders.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("order %s no longer %s: %w", id, from, models.ErrUpdateConflict)
	}
	return nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.events.CountDocuments(ctx, bson.M{"_id": eventID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.events.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{"$setOnInsert": bson.M{
			"event_type":   eventType,
			"processed_at": time.Now(),
		}},
		options.Update().SetUpsert(true))
	return err
}
