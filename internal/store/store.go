package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Store is the PostgreSQL implementation of the service stores
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by readiness probes
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the tables the service needs if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// AdjustVariantStock adds delta to a variant's stock in a single statement
func (s *Store) AdjustVariantStock(ctx context.Context, productID, size, color string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE product_variants SET stock = stock + $1
		 WHERE product_id = $2 AND size = $3 AND color = $4`,
		delta, productID, size, color)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("variant %s/%s/%s: %w", productID, size, color, models.ErrNotFound)
	}
	return nil
}

// CreateProduct inserts a product and its variants
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO products (id, name, category, price, created_at) VALUES ($1, $2, $3, $4, $5)`,
		product.ID, product.Name, product.Category, product.Price, product.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	for _, v := range product.Variants {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO product_variants (product_id, size, color, stock) VALUES ($1, $2, $3, $4)`,
			product.ID, v.Size, v.Color, v.Stock)
		if err != nil {
			return fmt.Errorf("failed to insert variant: %w", err)
		}
	}

	return tx.Commit()
}

// GetProduct retrieves a product with its variants
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT id, name, category, price, created_at FROM products WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "product "+id)
	}

	err = s.db.SelectContext(ctx, &product.Variants,
		"SELECT product_id, size, color, stock FROM product_variants WHERE product_id = $1 ORDER BY size, color", id)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
