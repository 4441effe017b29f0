package store

import (
	"context"
	"time"

	chx "garden/internal/platform/store/ch"
	mgo "garden/internal/platform/store/mongo"
	"garden/internal/platform/store/pg"
)

func openPG(ctx context.Context, cfg PGConfig, s *Store) (TxRunner, error) {
	pool, err := pg.Open(ctx, pg.Config{
		URL:      cfg.URL,
		MaxConns: cfg.MaxConns,
		Slow:     cfg.Slow,
		LogSQL:   cfg.LogSQL,
	}, s.Log)
	if err != nil {
		return nil, err
	}
	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if err := pg.Ping(ctx, pool, attempts, timeout); err != nil {
		pool.Close()
		return nil, err
	}
	return newPGSeam(pool), nil
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	role := cfg.CH.ClientRole
	if role == "" {
		role = cfg.AppName
	}
	c, err := chx.Open(ctx, chx.Config{URL: cfg.CH.URL, Role: role, Tag: cfg.CH.ClientTag})
	if err != nil {
		return nil, err
	}
	s.Log.Debug().Str("role", role).Msg("clickhouse connected")
	return chSeam{c}, nil
}

func openMongo(ctx context.Context, cfg Config) (Document, error) {
	return mgo.Open(ctx, mgo.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		AppName:        cfg.AppName,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
}
