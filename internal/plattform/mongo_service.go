package plattform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrMissingMongoURI indicates that no MongoDB URI was configured.
	ErrMissingMongoURI = errors.New("database: missing mongo URI")
)

// NewClient establishes a MongoDB client and returns a MongoService.
// The caller owns the returned service and must call Disconnect when done.
func NewClient(ctx context.Context, uri string) (*MongoService, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, ErrMissingMongoURI
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opt := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(opt)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return NewMongoService(client), nil
}

type MongoService struct {
	client *mongo.Client
}

// NewMongoService creates a new MongoService instance with the provided MongoDB client.
func NewMongoService(client *mongo.Client) *MongoService {
	return &MongoService{client: client}
}

// GetCollection returns a handle to the requested collection.
func (s *MongoService) GetCollection(dbName, collName string) *mongo.Collection {
	return s.client.Database(dbName).Collection(collName)
}

// Ping checks connectivity against the deployment.
func (s *MongoService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Disconnect closes the underlying client.
func (s *MongoService) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
