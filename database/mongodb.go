// Package database manages the single MongoDB connection a node uses to
// back its scenario catalog (§12). Grounded on roboserver/database's
// MongodbHandler: a persistent pooled client established at startup and
// handed to every package that needs a *mongo.Database, rather than one
// connection per request.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"roboscapesim/shared"
)

// Handler owns a pooled MongoDB client and the single database a node
// reads its scenario catalog from.
type Handler struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect dials uri and selects dbName, verifying the connection with a
// ping before returning.
func Connect(ctx context.Context, uri, dbName string) (*Handler, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(serverAPI).
		SetMaxPoolSize(shared.MONGODB_MAX_POOL_SIZE).
		SetMinPoolSize(shared.MONGODB_MIN_POOL_SIZE).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	shared.DebugPrint("connected to MongoDB database %q", dbName)
	return &Handler{client: client, database: client.Database(dbName)}, nil
}

// Database returns the handler's selected database.
func (h *Handler) Database() *mongo.Database { return h.database }

// Disconnect closes the underlying client.
func (h *Handler) Disconnect(ctx context.Context) error {
	if h.client == nil {
		return nil
	}
	return h.client.Disconnect(ctx)
}
