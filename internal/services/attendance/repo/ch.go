package repo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	perr "garden/internal/platform/errors"
	"garden/internal/platform/store"
	"garden/internal/services/attendance/domain"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CHExporter writes attendance_daily rows to ClickHouse
type CHExporter struct {
	ch    store.Clickhouse
	table string
	now   func() time.Time
}

var _ domain.Exporter = (*CHExporter)(nil)

// NewCHExporter returns an exporter into table
func NewCHExporter(ch store.Clickhouse, table string) (*CHExporter, error) {
	if ch == nil {
		return nil, perr.InvalidArgf("attendance export needs SERVICE_CLICKHOUSE_DBURL")
	}
	if !tableName.MatchString(table) {
		return nil, perr.InvalidArgf("attendance export: bad table name %q", table)
	}
	return &CHExporter{ch: ch, table: table, now: time.Now}, nil
}

// EnsureTable creates the export table when missing. Re-exports of a day
// collapse on merge to the newest row
func (e *CHExporter) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	user_id     String,
	day         Date,
	first_ts    String,
	first_at    DateTime64(6, 'UTC'),
	commits     UInt32,
	exported_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree(exported_at)
ORDER BY (user_id, day)`, e.table)
	if err := e.ch.Exec(ctx, ddl); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "ensure export table")
	}
	return nil
}

// Export implements domain.Exporter as one batch
func (e *CHExporter) Export(ctx context.Context, rows []domain.ExportRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := e.EnsureTable(ctx); err != nil {
		return err
	}
	at := e.now().UTC()
	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, []any{r.User, r.Day.In(time.UTC), r.FirstTS, r.FirstAt.UTC(), uint32(r.Commits), at})
	}
	if err := e.ch.Insert(ctx, e.table, data); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "export %d rows", len(rows))
	}
	return nil
}
