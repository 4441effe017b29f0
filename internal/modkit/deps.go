// Package modkit provides module wiring and core deps
package modkit

import (
	"garden/internal/modkit/repokit"
	"garden/internal/platform/config"
	"garden/internal/platform/logger"
	"garden/internal/platform/metrics"
	"garden/internal/platform/store"
)

// Deps holds the backends and ambient services handed to every module.
// Unset backends stay nil
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse

	// Mongo is nil unless the document backend is enabled
	Mongo store.Document

	// Metrics is nil safe
	Metrics *metrics.Manager
}
