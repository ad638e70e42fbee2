package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/domain/models"
)

// AuditRepository keeps a secondary trail of every scan in MongoDB. Unlike
// the xlsx ledger it is insert-only, so it survives a corrupted history file.
type AuditRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewAuditRepository creates a new MongoDB audit repository.
func NewAuditRepository(ctx context.Context, uri string, dbName string) (*AuditRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &AuditRepository{
		client:   client,
		dbName:   dbName,
		collName: "escaneos",
	}, nil
}

// Publish inserts the saved row as an audit document.
func (r *AuditRepository) Publish(ctx context.Context, row models.LedgerRow) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, row); err != nil {
		return fmt.Errorf("failed to insert scan audit: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *AuditRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
