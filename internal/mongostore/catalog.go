package mongostore

import (
	"context"
	"fmt"

	"storefront-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListActiveCategories retrieves active categories ordered by name
func (s *Store) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.categories.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a category; slugs are unique
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	_, err := s.categories.InsertOne(ctx, category)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("category %s: %w", category.Slug, models.ErrDuplicateCategory)
	}
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// AppendNotification adds an entry to the notification log. An entry for an
// already recorded event id is ignored.
func (s *Store) AppendNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	_, err := s.notifications.InsertOne(ctx, n)
	if mongo.IsDuplicateKeyError(err) && n.EventID != "" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

// ListNotifications retrieves the newest notifications first
func (s *Store) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.notifications.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}
