package db

import (
	"context"
	"fmt"

	"github.com/Vaibhav5418/leadgen-backend/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names used by the repositories.
const (
	CollectionContacts        = "contacts"
	CollectionProjects        = "projects"
	CollectionProjectContacts = "project_contacts"
)

// Database wraps the document store client and the application database handle.
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewDatabase connects to the document store using the provided configuration.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		Client: client,
		DB:     client.Database(cfg.Name),
	}, nil
}

// EnsureIndexes creates the uniqueness constraints the import and link
// reconciliation logic relies on:
//   - contacts.email is unique, case-insensitive, for non-empty values
//   - one project_contacts document per (projectId, contactId) pair
func (db *Database) EnsureIndexes(ctx context.Context) error {
	caseInsensitive := &options.Collation{Locale: "en", Strength: 2}

	_, err := db.DB.Collection(CollectionContacts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("uniq_contact_email").
			SetUnique(true).
			SetCollation(caseInsensitive).
			SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string", "$gt": ""}}),
	})
	if err != nil {
		return fmt.Errorf("failed to create contact email index: %w", err)
	}

	_, err = db.DB.Collection(CollectionProjectContacts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "contactId", Value: 1}},
		Options: options.Index().
			SetName("uniq_project_contact").
			SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create project contact index: %w", err)
	}

	return nil
}

// Close disconnects from the document store
func (db *Database) Close(ctx context.Context) error {
	if db.Client != nil {
		return db.Client.Disconnect(ctx)
	}
	return nil
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck(ctx context.Context) error {
	return db.Client.Ping(ctx, readpref.Primary())
}
