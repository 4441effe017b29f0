package attendance

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	ptime "garden/internal/platform/time"
)

var seoul = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*3600)
	}
	return loc
}()

// msg builds a message at a local wall clock time with one commit attachment
func msg(t *testing.T, local string, atts ...any) Message {
	t.Helper()
	at, err := time.ParseInLocation("2006-01-02T15:04", local, seoul)
	if err != nil {
		t.Fatalf("bad fixture time %q: %v", local, err)
	}
	if len(atts) == 0 {
		atts = []any{map[string]any{"author_name": "alice", "text": "commit " + local}}
	}
	return Message{TS: ptime.FormatUnixDecimal(at), OccurredAt: at.UTC(), Attachments: atts}
}

func days(b Buckets) []string {
	var out []string
	for _, d := range b.Dates() {
		out = append(out, fmt.Sprintf("%s:%d", d, len(b[d])))
	}
	return out
}

func TestDerive_CarryBack(t *testing.T) {
	start := MustDate("2024-01-01")
	e := New(Policy{Start: start, Location: seoul})

	cases := []struct {
		name string
		msgs []string
		want []string
	}{
		{
			name: "first early message claims previous day",
			msgs: []string{"2024-01-02T01:30"},
			want: []string{"2024-01-01:1"},
		},
		{
			name: "second early message the same night files under its own day",
			msgs: []string{"2024-01-02T01:30", "2024-01-02T01:45"},
			want: []string{"2024-01-01:1", "2024-01-02:1"},
		},
		{
			name: "previous day already has a bucket",
			msgs: []string{"2024-01-01T23:50", "2024-01-02T01:10", "2024-01-03T10:00"},
			want: []string{"2024-01-01:1", "2024-01-02:1", "2024-01-03:1"},
		},
		{
			name: "hour two is outside the window",
			msgs: []string{"2024-01-05T02:00"},
			want: []string{"2024-01-05:1"},
		},
		{
			name: "one fifty nine is inside the window",
			msgs: []string{"2024-01-05T01:59"},
			want: []string{"2024-01-04:1"},
		},
		{
			name: "never carries back before the season start",
			msgs: []string{"2024-01-01T00:30"},
			want: []string{"2024-01-01:1"},
		},
		{
			name: "carry back onto the start date itself is allowed",
			msgs: []string{"2024-01-02T00:05"},
			want: []string{"2024-01-01:1"},
		},
		{
			name: "daytime messages share one bucket",
			msgs: []string{"2024-01-03T09:00", "2024-01-03T12:00", "2024-01-03T23:59"},
			want: []string{"2024-01-03:3"},
		},
		{
			name: "carry back across a month boundary",
			msgs: []string{"2024-02-01T01:00"},
			want: []string{"2024-01-31:1"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var in []Message
			for _, m := range c.msgs {
				in = append(in, msg(t, m))
			}
			if got := days(e.Derive(in)); !reflect.DeepEqual(got, c.want) {
				t.Fatalf("buckets = %v, want %v", got, c.want)
			}
		})
	}
}

func TestDerive_EndToEndScenario(t *testing.T) {
	e := New(Policy{Start: MustDate("2024-01-01"), Location: seoul})
	m1 := msg(t, "2024-01-01T23:50")
	m2 := msg(t, "2024-01-02T01:10")
	m3 := msg(t, "2024-01-03T10:00")

	b := e.Derive([]Message{m1, m2, m3})

	want := map[string]string{
		"2024-01-01": m1.TS,
		"2024-01-02": m2.TS,
		"2024-01-03": m3.TS,
	}
	if len(b) != len(want) {
		t.Fatalf("got %d buckets, want %d: %v", len(b), len(want), days(b))
	}
	for d, ts := range want {
		first, ok := b.First(MustDate(d))
		if !ok || first.TS != ts {
			t.Fatalf("first entry for %s = %+v, want ts %s", d, first, ts)
		}
	}
}

func TestDerive_OrderWithinBucketFollowsInput(t *testing.T) {
	e := New(Policy{Start: MustDate("2024-01-01"), Location: seoul})
	in := []Message{
		msg(t, "2024-01-10T08:00"),
		msg(t, "2024-01-10T09:00"),
		msg(t, "2024-01-11T01:00"), // 01-10 exists, stays on 01-11
		msg(t, "2024-01-11T13:00"),
	}
	b := e.Derive(in)
	for _, d := range b.Dates() {
		es := b[d]
		for i := 1; i < len(es); i++ {
			if es[i].At.Before(es[i-1].At) {
				t.Fatalf("bucket %s out of order at %d", d, i)
			}
		}
	}
	if got := days(b); !reflect.DeepEqual(got, []string{"2024-01-10:2", "2024-01-11:2"}) {
		t.Fatalf("buckets = %v", got)
	}
}

func TestDerive_Exclusion(t *testing.T) {
	var skips []Skip
	e := New(Policy{Start: MustDate("2024-01-01"), Location: seoul})
	e.OnSkip = func(s Skip) { skips = append(skips, s) }

	pr := msg(t, "2024-01-03T10:00", map[string]any{"author_name": "alice", "title": "PR #1"})
	noAtt := Message{TS: "1704243600.000000", OccurredAt: time.Unix(1704243600, 0).UTC()}
	mixed := msg(t, "2024-01-04T10:00",
		"not-an-object",
		map[string]any{"author_name": "alice", "text": 42},
		map[string]any{"author_name": "alice", "text": "real commit"},
	)

	nullText := msg(t, "2024-01-05T10:00", map[string]any{"author_name": "alice", "text": nil})

	b := e.Derive([]Message{pr, noAtt, mixed, nullText})

	if got := days(b); !reflect.DeepEqual(got, []string{"2024-01-04:1", "2024-01-05:1"}) {
		t.Fatalf("buckets = %v", got)
	}
	if c := b[MustDate("2024-01-04")][0].Commits; !reflect.DeepEqual(c, []string{"42", "real commit"}) {
		t.Fatalf("commits = %v", c)
	}
	if c := b[MustDate("2024-01-05")][0].Commits; !reflect.DeepEqual(c, []string{""}) {
		t.Fatalf("null text commits = %q", c)
	}
	if len(skips) != 2 {
		t.Fatalf("skips = %+v, want 2", skips)
	}
	if skips[0].TS != pr.TS || skips[1].Index != 0 || skips[1].TS != mixed.TS {
		t.Fatalf("skip indexes = %+v", skips)
	}
}

func TestFold_ResumesFromSeenDays(t *testing.T) {
	e := New(Policy{Start: MustDate("2024-01-01"), Location: seoul})

	// full history for reference
	history := []Message{
		msg(t, "2024-01-01T20:00"),
		msg(t, "2024-01-03T01:00"),
		msg(t, "2024-01-04T01:00"),
	}
	full := e.Derive(history)

	// materialize after the first message, then resume with the rest
	first := e.Derive(history[:1])
	f := e.NewFold(first.Dates())
	for _, m := range history[1:] {
		f.Add(m)
	}

	merged := Buckets{}
	for d, es := range first {
		merged[d] = append(merged[d], es...)
	}
	for d, es := range f.Added() {
		merged[d] = append(merged[d], es...)
	}
	if !reflect.DeepEqual(days(merged), days(full)) {
		t.Fatalf("incremental %v != full %v", days(merged), days(full))
	}
	// 01-03 01:00 carries back onto 01-02; 01-04 01:00 finds 01-03 free
	if got := days(full); !reflect.DeepEqual(got, []string{"2024-01-01:1", "2024-01-02:1", "2024-01-03:1"}) {
		t.Fatalf("full = %v", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	e := New(Policy{Start: MustDate("2024-01-01")})
	if e.Policy.Location != time.UTC || e.Policy.CutoffHour != DefaultCutoffHour {
		t.Fatalf("defaults not applied: %+v", e.Policy)
	}
}
