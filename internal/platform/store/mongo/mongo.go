// Package mongo opens a document store client and pins the working database
package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Config configures the mongo client
type Config struct {
	URI            string
	Database       string
	AppName        string
	ConnectTimeout time.Duration
}

// Mongo holds a connected client and its default database
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects, pings the primary and selects cfg.Database
func Open(ctx context.Context, cfg Config) (*Mongo, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, fmt.Errorf("mongo: empty database name")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(timeout)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &Mongo{client: client, db: client.Database(cfg.Database)}, nil
}

// DB returns the configured database handle
func (m *Mongo) DB() *mongo.Database { return m.db }

// Ping checks the primary is reachable
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
