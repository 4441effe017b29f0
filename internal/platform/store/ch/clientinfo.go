package ch

import (
	"os"
	"strings"

	"garden/internal/core/version"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo names this process in system.query_log. role is the
// binary's job (api, migrate, attendance), tag its product version
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	bi := version.Info()
	host, _ := os.Hostname()

	info := clickhouse.ClientInfo{}
	for _, p := range [][2]string{
		{"garden", tag},
		{"role", role},
		{"go", bi.Go},
		{"commit", bi.Commit},
		{"host", host},
	} {
		v := strings.TrimSpace(p[1])
		if v == "" {
			v = "unknown"
		}
		info.Products = append(info.Products, struct{ Name, Version string }{p[0], v})
	}
	return info
}
