package store

import (
	"context"

	"garden/internal/platform/store/ch"
)

// chSeam narrows *ch.CH to the Clickhouse seam. Only Rows needs adapting,
// the driver's Close returns an error
type chSeam struct{ *ch.CH }

var _ Clickhouse = chSeam{}

func (c chSeam) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := c.CH.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
