package database

import (
	"context"
	"fmt"
	"time"

	"products-api/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Service wraps the MongoDB client. The client maintains its own connection
// pool and is safe for concurrent use across request handlers.
type Service struct {
	client   *mongo.Client
	database *mongo.Database
}

// New connects to MongoDB using the configured URI and verifies the
// connection with a ping before returning.
func New(ctx context.Context, cfg config.MongoConfig) (*Service, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Service{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

// Database returns the configured database handle.
func (s *Service) Database() *mongo.Database {
	return s.database
}

// Collection returns the named collection from the configured database.
func (s *Service) Collection(name string) *mongo.Collection {
	return s.database.Collection(name)
}

// Health reports connection status for the health endpoint.
func (s *Service) Health(ctx context.Context) map[string]string {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return map[string]string{
			"status": "down",
			"error":  err.Error(),
		}
	}

	return map[string]string{
		"status":   "up",
		"database": s.database.Name(),
	}
}

// Close disconnects the client, releasing pooled connections.
func (s *Service) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}
