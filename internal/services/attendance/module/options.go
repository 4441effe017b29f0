package module

import (
	"garden/internal/platform/config"
)

// Options holds configuration for the attendance module
type Options struct {
	Materialized bool
	CutoffHour   int
	ExportTable  string
}

// FromConfig reads options with the CORE_ATTENDANCE_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_ATTENDANCE_")
	return Options{
		Materialized: c.MayBool("MATERIALIZED", false),
		CutoffHour:   c.MayInt("CUTOFF_HOUR", 0),
		ExportTable:  c.MayString("EXPORT_TABLE", "attendance_daily"),
	}
}
