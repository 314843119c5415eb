package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectMongo connects and pings MongoDB. The database name comes from the
// URI path when present, otherwise fallbackDB.
func ConnectMongo(ctx context.Context, mongoURI, fallbackDB string, log *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	// Atlas clusters can be slow to answer the first handshake
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(mongoURI).
		SetServerSelectionTimeout(10 * time.Second)

	log.Info("connecting to MongoDB")
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	name := databaseName(mongoURI, fallbackDB)
	log.Info("connected to MongoDB", zap.String("database", name))
	return client, client.Database(name), nil
}

// DisconnectMongo closes the client with a bounded wait.
func DisconnectMongo(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}

// databaseName extracts the path segment of mongodb://host/name?opts.
func databaseName(mongoURI, fallback string) string {
	rest := mongoURI
	if i := strings.Index(rest, "://"); i != -1 {
		rest = rest[i+3:]
	}
	slash := strings.Index(rest, "/")
	if slash == -1 {
		return fallback
	}
	name := strings.SplitN(rest[slash+1:], "?", 2)[0]
	if name == "" {
		return fallback
	}
	return name
}
