package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the MongoDB implementation of the service stores
type Store struct {
	client        *mongo.Client
	promos        *mongo.Collection
	orders        *mongo.Collection
	products      *mongo.Collection
	categories    *mongo.Collection
	notifications *mongo.Collection
	events        *mongo.Collection
}

// Connect opens a client, verifies it and binds the collections of database
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client:        client,
		promos:        db.Collection("promo_codes"),
		orders:        db.Collection("orders"),
		products:      db.Collection("products"),
		categories:    db.Collection("categories"),
		notifications: db.Collection("notifications"),
		events:        db.Collection("processed_events"),
	}, nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the connection, used by readiness probes
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// EnsureIndexes creates the unique and lookup indexes the store relies on
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.promos, mongo.IndexModel{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.orders, mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		}},
		{s.orders, mongo.IndexModel{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.categories, mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.notifications, mongo.IndexModel{
			Keys: bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"event_id": bson.M{"$type": "string"}}),
		}},
		{s.notifications, mongo.IndexModel{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// AdjustVariantStock applies $inc to the matching embedded variant. A
// negative delta only applies while enough stock remains.
func (s *Store) AdjustVariantStock(ctx context.Context, productID, size, color string, delta int) error {
	match := bson.M{"size": size, "color": color}
	if delta < 0 {
		match["stock"] = bson.M{"$gte": -delta}
	}

	filter := bson.M{
		"_id":      productID,
		"variants": bson.M{"$elemMatch": match},
	}
	update := bson.M{"$inc": bson.M{"variants.$.stock": delta}}

	res, err := s.products.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("variant %s/%s/%s (or enough stock): %w", productID, size, color, models.ErrNotFound)
	}
	return nil
}

// CreateProduct inserts a product document with its variants
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, err := s.products.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product with its variants
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFound(err, "product "+id)
	}
	return &product, nil
}
