package module

import (
	"garden/internal/platform/config"
)

// Backends
const (
	BackendPG    = "pg"
	BackendMongo = "mongo"
	BackendMem   = "memory"
)

// Options holds configuration for the message store
type Options struct {
	Backend      string
	Schema       string
	Table        string
	Collection   string
	DefaultLimit int
	MaxLimit     int
}

// FromConfig reads options with the CORE_MESSAGES_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_MESSAGES_")
	return Options{
		Backend:      c.MayEnum("BACKEND", BackendPG, BackendPG, BackendMongo, BackendMem),
		Schema:       c.MayString("SCHEMA", "garden6"),
		Table:        c.MayString("TABLE", "slack_messages"),
		Collection:   c.MayString("COLLECTION", "slack_messages"),
		DefaultLimit: c.MayInt("DEFAULT_LIMIT", 100),
		MaxLimit:     c.MayInt("MAX_LIMIT", 1000),
	}
}
