package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"

	indexEmail       = "email_1"
	indexUsername    = "username_1"
	indexFederatedID = "federatedId_1"
)

// Connection owns a Mongo client bound to one database.
type Connection struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewConnection connects, verifies the primary is reachable and creates the
// unique indexes the user store relies on.
func NewConnection(ctx context.Context, uri, database string, timeout time.Duration) (*Connection, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}

	conn := &Connection{
		Client: client,
		DB:     client.Database(database),
	}

	if err := conn.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return conn, nil
}

func (c *Connection) ensureIndexes(ctx context.Context) error {
	_, err := c.DB.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexEmail).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(indexUsername).SetUnique(true),
		},
		{
			// Sparse so accounts without a federated identity do not collide.
			Keys:    bson.D{{Key: "federatedId", Value: 1}},
			Options: options.Index().SetName(indexFederatedID).SetUnique(true).SetSparse(true),
		},
	})
	return err
}

// Users returns the collection backing the user store.
func (c *Connection) Users() *mongo.Collection {
	return c.DB.Collection(usersCollection)
}

func (c *Connection) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}
