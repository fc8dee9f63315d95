package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"

	"github.com/google/uuid"
)

// ListActiveCategories retrieves active categories ordered by name
func (s *Store) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories,
		"SELECT id, name, slug, is_active, created_at FROM categories WHERE is_active ORDER BY name")
	return categories, err
}

// CreateCategory inserts a category; slugs are unique
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO categories (id, name, slug, is_active, created_at)
		 VALUES (:id, :name, :slug, :is_active, :created_at)`, category)
	if isUniqueViolation(err) {
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

	eventID := sql.NullString{String: n.EventID, Valid: n.EventID != ""}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, event_id, type, order_id, order_number, total, message, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (event_id) DO NOTHING`,
		n.ID, eventID, n.Type, n.OrderID, n.OrderNumber, n.Total, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

// ListNotifications retrieves the newest notifications first
func (s *Store) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := s.db.SelectContext(ctx, &notifications,
		`SELECT id, COALESCE(event_id, '') AS event_id, type, order_id, order_number, total, message, is_read, created_at
		 FROM notifications ORDER BY created_at DESC LIMIT $1`, limit)
	return notifications, err
}
