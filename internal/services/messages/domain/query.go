package domain

import (
	"slices"
	"sort"
	"time"

	perr "garden/internal/platform/errors"
)

// Sort orders
const (
	SortAsc  = "ts"
	SortDesc = "-ts"
)

// EqualColumns are the columns Query.Equals may match exactly
var EqualColumns = []string{"ts", "bot_id", "type", "text", "user", "team"}

// Query filters a Find
// zero values mean no filter; Until is exclusive
type Query struct {
	Author         string
	Equals         map[string]string
	From           time.Time
	Until          time.Time
	AfterTS        string
	HasAttachments bool
	Sort           string
	Limit          int
}

// Validate rejects unknown columns, sorts and ranges
func (q Query) Validate() error {
	for k := range q.Equals {
		if !slices.Contains(EqualColumns, k) {
			return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "unknown column %q", k), "equals")
		}
	}
	switch q.Sort {
	case "", SortAsc, SortDesc:
	default:
		return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "sort must be %q or %q", SortAsc, SortDesc), "sort")
	}
	if q.Limit < 0 {
		return perr.WithField(perr.New(perr.ErrorCodeValidation, "limit must not be negative"), "limit")
	}
	if !q.From.IsZero() && !q.Until.IsZero() && !q.From.Before(q.Until) {
		return perr.WithField(perr.New(perr.ErrorCodeValidation, "from must be before until"), "from")
	}
	return nil
}

// Desc reports whether results are newest first
func (q Query) Desc() bool { return q.Sort == SortDesc }

// EqualKeys returns the Equals columns in a stable order
func (q Query) EqualKeys() []string {
	keys := make([]string, 0, len(q.Equals))
	for k := range q.Equals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
