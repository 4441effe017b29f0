package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// memRows iterates a slice of single-string rows
type memRows struct {
	data   []string
	i      int
	err    error
	closed bool
}

func (r *memRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *memRows) Scan(dest ...any) error {
	p, ok := dest[0].(*string)
	if !ok {
		return fmt.Errorf("want *string, got %T", dest[0])
	}
	*p = r.data[r.i-1]
	return nil
}

func (r *memRows) Err() error { return r.err }
func (r *memRows) Close()     { r.closed = true }

type scalarRow struct{ n int64 }

func (r scalarRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = r.n
	return nil
}

type memQuerier struct {
	rows     *memRows
	queryErr error
}

func (q *memQuerier) Exec(context.Context, string, ...any) (CommandTag, error) { return nil, nil }
func (q *memQuerier) Query(context.Context, string, ...any) (Rows, error) {
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return q.rows, nil
}
func (q *memQuerier) QueryRow(context.Context, string, ...any) Row { return scalarRow{n: 7} }

func scanString(r Row) (string, error) {
	var s string
	err := r.Scan(&s)
	return s, err
}

func TestScalar(t *testing.T) {
	n, err := Scalar[int64](context.Background(), &memQuerier{}, "select count(*)")
	if err != nil || n != 7 {
		t.Fatalf("got %d, %v", n, err)
	}
}

func TestMany(t *testing.T) {
	ctx := context.Background()
	rows := &memRows{data: []string{"alice", "bob"}}
	got, err := Many(ctx, &memQuerier{rows: rows}, scanString, "select")
	if err != nil || len(got) != 2 || got[1] != "bob" {
		t.Fatalf("got %v, %v", got, err)
	}
	if !rows.closed {
		t.Fatal("rows left open")
	}

	boom := errors.New("boom")
	if _, err := Many(ctx, &memQuerier{queryErr: boom}, scanString, "select"); !errors.Is(err, boom) {
		t.Fatalf("query error: %v", err)
	}
	if _, err := Many(ctx, &memQuerier{rows: &memRows{err: boom}}, scanString, "select"); !errors.Is(err, boom) {
		t.Fatalf("iteration error: %v", err)
	}
}

func TestFirst(t *testing.T) {
	ctx := context.Background()
	s, ok, err := First(ctx, &memQuerier{rows: &memRows{data: []string{"x", "y"}}}, scanString, "select")
	if err != nil || !ok || s != "x" {
		t.Fatalf("got %q %v %v", s, ok, err)
	}
	_, ok, err = First(ctx, &memQuerier{rows: &memRows{}}, scanString, "select")
	if err != nil || ok {
		t.Fatalf("empty: ok=%v err=%v", ok, err)
	}
}
