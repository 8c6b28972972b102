package repository

import (
	"context"
	"errors"
	"fmt"

	"products-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidProductID = errors.New("invalid product id")
)

// ParseProductID parses an external id string into an ObjectID. Malformed
// ids fail here, before any query reaches the database.
func ParseProductID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidProductID, id)
	}
	return oid, nil
}

// ProductRepository defines the interface for product data access. It owns
// the mapping between domain.Product and its document encoding; not-found
// outcomes are reported as ErrProductNotFound, never as a driver error.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Replace(ctx context.Context, id primitive.ObjectID, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type productRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a new instance of ProductRepository backed by
// the given collection.
func NewProductRepository(collection *mongo.Collection) ProductRepository {
	return &productRepository{collection: collection}
}

// Create inserts a new product document. The storage engine mints the id,
// which is written back onto the product.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	product.ID = primitive.NilObjectID

	result, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	product.ID = oid

	return nil
}

// FindByID retrieves a product by its ObjectID.
func (r *productRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	product := &domain.Product{}
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves all products in the collection's natural order. The cursor
// is fully drained before returning; callers never see a live cursor.
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []*domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, nil
}

// Replace swaps the full document matching id for the given field values.
// The id itself is immutable; whatever id the payload carried is discarded.
func (r *productRepository) Replace(ctx context.Context, id primitive.ObjectID, product *domain.Product) (*domain.Product, error) {
	product.ID = id

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id}, product)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, ErrProductNotFound
	}

	return product, nil
}

// Delete removes the product matching id. Deleting an id that no longer
// exists reports ErrProductNotFound.
func (r *productRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}
