// Package attendance turns a user's commit notifications into per-day
// attendance buckets.
//
// Messages are folded in ascending ts order. A message is filed under its
// calendar date in the configured zone, except that a message posted before
// the cutoff hour is filed under the previous day when that day is on or after
// the season start and has no bucket yet. Only the first such message claims
// the previous day; the visited set makes the rule order dependent, so the
// fold must see messages in ts order and never be re-sorted afterwards
package attendance

import (
	"fmt"
	"sort"
	"time"
)

// DefaultCutoffHour is the exclusive upper bound of the carry-back window
const DefaultCutoffHour = 2

// Message is the slice of a stored chat message the engine needs
type Message struct {
	TS          string
	OccurredAt  time.Time
	Attachments []any
}

// Entry is one qualifying message filed under a day
type Entry struct {
	TS      string    `json:"ts"`
	At      time.Time `json:"at"`
	Commits []string  `json:"commits"`
}

// Buckets maps a day to its entries in ascending ts order
type Buckets map[Date][]Entry

// Dates returns the bucket keys in ascending order
func (b Buckets) Dates() []Date {
	out := make([]Date, 0, len(b))
	for d := range b {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// First returns the earliest entry filed under d
func (b Buckets) First(d Date) (Entry, bool) {
	es := b[d]
	if len(es) == 0 {
		return Entry{}, false
	}
	return es[0], true
}

// Skip describes an attachment dropped during extraction
type Skip struct {
	TS     string
	Index  int
	Reason string
}

// Policy holds the rule parameters
type Policy struct {
	Start      Date           // season start; carry-back never crosses below it
	Location   *time.Location // zone used for calendar date and hour
	CutoffHour int            // messages with hour < CutoffHour may carry back
}

// Engine applies a Policy. OnSkip, when set, sees every dropped attachment
type Engine struct {
	Policy Policy
	OnSkip func(Skip)
}

// New returns an Engine with defaults filled in
func New(p Policy) *Engine {
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.CutoffHour <= 0 {
		p.CutoffHour = DefaultCutoffHour
	}
	return &Engine{Policy: p}
}

// Derive folds msgs (already in ascending ts order) into fresh buckets
func (e *Engine) Derive(msgs []Message) Buckets {
	f := e.NewFold(nil)
	for _, m := range msgs {
		f.Add(m)
	}
	return f.Added()
}

// Fold is an in-progress forward scan. It can resume from previously
// materialized days by seeding the visited set with their dates
type Fold struct {
	e       *Engine
	visited map[Date]struct{}
	added   Buckets
}

// NewFold starts a scan; seen lists days that already have a bucket
func (e *Engine) NewFold(seen []Date) *Fold {
	f := &Fold{e: e, visited: make(map[Date]struct{}, len(seen)), added: Buckets{}}
	for _, d := range seen {
		f.visited[d] = struct{}{}
	}
	return f
}

// Add files one message. It returns the day used and false when the
// message carried no commit text and was ignored
func (f *Fold) Add(m Message) (Date, bool) {
	commits := f.e.Commits(m)
	if len(commits) == 0 {
		return Date{}, false
	}

	p := f.e.Policy
	local := m.OccurredAt.In(p.Location)
	day := DateOf(local)
	prev := day.AddDays(-1)

	target := day
	if _, taken := f.visited[prev]; !taken && !prev.Before(p.Start) && local.Hour() < p.CutoffHour {
		target = prev
	}

	f.visited[target] = struct{}{}
	f.added[target] = append(f.added[target], Entry{TS: m.TS, At: m.OccurredAt, Commits: commits})
	return target, true
}

// Added returns the entries filed during this scan
func (f *Fold) Added() Buckets { return f.added }

// Commits extracts the text of every attachment that has one. A present
// text counts even when it is not a string: null becomes "" and other
// values are printed. Attachments that are not objects or carry no text
// are reported through OnSkip; the latter is the normal shape of non-commit
// notifications
func (e *Engine) Commits(m Message) []string {
	var out []string
	for i, a := range m.Attachments {
		obj, ok := a.(map[string]any)
		if !ok {
			e.skip(m.TS, i, "attachment is not an object")
			continue
		}
		raw, ok := obj["text"]
		if !ok {
			e.skip(m.TS, i, "attachment has no text")
			continue
		}
		switch t := raw.(type) {
		case string:
			out = append(out, t)
		case nil:
			out = append(out, "")
		default:
			out = append(out, fmt.Sprint(t))
		}
	}
	return out
}

func (e *Engine) skip(ts string, i int, reason string) {
	if e.OnSkip != nil {
		e.OnSkip(Skip{TS: ts, Index: i, Reason: reason})
	}
}
