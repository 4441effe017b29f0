package store

import (
	"time"

	"garden/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG    PGConfig
	CH    CHConfig
	Mongo MongoConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32
	LogSQL   bool
	Slow     time.Duration

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled    bool
	URL        string
	ClientRole string
	ClientTag  string
}

// MongoConfig configures the document backend
type MongoConfig struct {
	Enabled        bool
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// FromEnv reads backend config from SERVICE_PGSQL_*, SERVICE_CLICKHOUSE_* and
// SERVICE_MONGO_*. A backend is enabled when its url is set
func FromEnv(root config.Conf, tag string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	mg := root.Prefix("SERVICE_MONGO_")

	pgURL := pg.MayString("DBURL", "")
	chURL := ch.MayString("DBURL", "")
	mgURI := mg.MayString("URI", "")

	return Config{
		AppName: "garden-" + tag,
		PG: PGConfig{
			Enabled:        pgURL != "",
			URL:            pgURL,
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 4)),
			Slow:           pg.MayDuration("SLOW", 500*time.Millisecond),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			Enabled:    chURL != "",
			URL:        chURL,
			ClientRole: "garden",
			ClientTag:  tag,
		},
		Mongo: MongoConfig{
			Enabled:        mg.MayBool("ENABLED", mgURI != ""),
			URI:            mgURI,
			Database:       mg.MayString("DATABASE", "garden"),
			ConnectTimeout: mg.MayDuration("CONNECT_TIMEOUT", 10*time.Second),
		},
	}
}
