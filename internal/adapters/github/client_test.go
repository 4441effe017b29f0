package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	perr "garden/internal/platform/errors"
)

const commitBody = `{
	"sha": "f3d807901dc16d1c049dc14c02c1916234af8abc",
	"html_url": "https://github.com/alice/til/commit/f3d807901dc16d1c049dc14c02c1916234af8abc",
	"commit": {
		"message": "add notes",
		"author": {"name": "Alice", "email": "a@example.com", "date": "2024-01-02T01:30:00+09:00"},
		"committer": {"name": "Alice", "email": "a@example.com", "date": "2024-01-02T01:31:00+09:00"}
	},
	"author": {"id": 7, "login": "alice"}
}`

func testClient(t *testing.T, h http.HandlerFunc, tokens string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Options{BaseURL: srv.URL, TokensCSV: tokens, MaxRetries: 2, RetryBase: time.Millisecond})
	c.timer = &instantTimer{}
	return c
}

// instantTimer fires retry waits immediately and records them
type instantTimer struct {
	waits []time.Duration
	ch    chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.ch = make(chan time.Time, 1)
	t.ch <- time.Time{}
}

func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.ch }

func TestParseCommitURL(t *testing.T) {
	cases := []struct {
		in   string
		want CommitRef
		ok   bool
	}{
		{"https://github.com/alice/til/commit/F3D807901dc16d1c049dc14c02c1916234af8abc", CommitRef{"alice", "til", "f3d807901dc16d1c049dc14c02c1916234af8abc"}, true},
		{"https://github.com/alice/til/commit/f3d8079/files?diff=split#x", CommitRef{"alice", "til", "f3d8079"}, true},
		{"https://gitlab.com/alice/til/commit/f3d8079", CommitRef{}, false},
		{"https://github.com/alice/til/tree/f3d8079", CommitRef{}, false},
		{"https://github.com/alice/til/commit/xyz", CommitRef{}, false},
		{"ftp://github.com/alice/til/commit/f3d8079", CommitRef{}, false},
		{"", CommitRef{}, false},
	}
	for _, tc := range cases {
		got, err := ParseCommitURL(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("ParseCommitURL(%q) err = %v", tc.in, err)
		}
		if !tc.ok {
			if perr.CodeOf(err) != perr.ErrorCodeValidation {
				t.Fatalf("code = %v", perr.CodeOf(err))
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("ParseCommitURL(%q) = %+v", tc.in, got)
		}
	}

	ref := CommitRef{Owner: "alice", Repo: "til", SHA: "f3d807901dc16d1c"}
	if ref.Short() != "f3d80790" || ref.URL() != "https://github.com/alice/til/commit/f3d807901dc16d1c" {
		t.Fatalf("ref helpers = %q %q", ref.Short(), ref.URL())
	}
}

func TestCommit_OK(t *testing.T) {
	var auth atomic.Value
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/alice/til/commits/f3d8079" {
			http.NotFound(w, r)
			return
		}
		auth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(commitBody))
	}, "tok1")

	got, err := c.Commit(context.Background(), CommitRef{Owner: "alice", Repo: "til", SHA: "f3d8079"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Commit.Message != "add notes" || got.Author == nil || got.Author.Login != "alice" {
		t.Fatalf("commit = %+v", got)
	}
	want := time.Date(2024, 1, 1, 16, 30, 0, 0, time.UTC)
	if !got.Commit.Author.Date.Equal(want) {
		t.Fatalf("author date = %v", got.Commit.Author.Date)
	}
	if auth.Load() != "Bearer tok1" {
		t.Fatalf("auth header = %v", auth.Load())
	}
}

func TestCommit_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		code   perr.ErrorCode
	}{
		{http.StatusNotFound, perr.ErrorCodeNotFound},
		{http.StatusUnprocessableEntity, perr.ErrorCodeNotFound},
		{http.StatusUnauthorized, perr.ErrorCodeUnauthorized},
		{http.StatusTeapot, perr.ErrorCodeUnknown},
	}
	for _, tc := range cases {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		}, "")
		_, err := c.Commit(context.Background(), CommitRef{Owner: "a", Repo: "b", SHA: "abcdef1"})
		if perr.CodeOf(err) != tc.code {
			t.Fatalf("status %d: code = %v err = %v", tc.status, perr.CodeOf(err), err)
		}
		if !strings.Contains(err.Error(), "github") {
			t.Fatalf("status %d: err = %v", tc.status, err)
		}
	}
}

func TestCommit_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(commitBody))
	}, "a,b")
	if _, err := c.Commit(context.Background(), CommitRef{Owner: "a", Repo: "b", SHA: "abcdef1"}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestCommit_GivesUpOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}, "")
	_, err := c.Commit(context.Background(), CommitRef{Owner: "a", Repo: "b", SHA: "abcdef1"})
	if perr.CodeOf(err) != perr.ErrorCodeTooManyRequests {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d", calls.Load())
	}
	waits := c.timer.(*instantTimer).waits
	if len(waits) != 2 || waits[0] != 7*time.Second {
		t.Fatalf("waits = %v, want Retry-After honoured", waits)
	}
}

func TestCommit_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}, "")
	_, err := c.Commit(context.Background(), CommitRef{Owner: "a", Repo: "b", SHA: "abcdef1"})
	if perr.CodeOf(err) != perr.ErrorCodeNotFound || calls.Load() != 1 {
		t.Fatalf("code = %v calls = %d", perr.CodeOf(err), calls.Load())
	}
}

func TestCommit_CancelStopsRateLimitWait(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}, "")
	c.timer = nil

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := c.Commit(ctx, CommitRef{Owner: "a", Repo: "b", SHA: "abcdef1"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("wait ignored cancellation: %v", time.Since(start))
	}
}

func TestCommit_MissingDate(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sha":"abcdef1","commit":{"message":"x"}}`))
	}, "")
	_, err := c.Commit(context.Background(), CommitRef{Owner: "a", Repo: "b", SHA: "abcdef1"})
	if perr.CodeOf(err) != perr.ErrorCodeDecode {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
}

func TestTokenRotation(t *testing.T) {
	c := NewClient(Options{TokensCSV: " a, ,b "})
	seen := map[string]bool{c.token(): true, c.token(): true}
	if !seen["a"] || !seen["b"] || len(c.tokens) != 2 {
		t.Fatalf("tokens = %v seen = %v", c.tokens, seen)
	}
	if NewClient(Options{}).token() != "" {
		t.Fatal("anonymous client sent a token")
	}
}

func TestComputeWait(t *testing.T) {
	now := time.Unix(1000, 0)
	if d := computeWait(5, time.Time{}, 3, now); d != 3*time.Second {
		t.Fatalf("retry-after = %v", d)
	}
	if d := computeWait(0, now.Add(10*time.Second), 0, now); d != 10*time.Second {
		t.Fatalf("reset = %v", d)
	}
	if d := computeWait(10, now.Add(10*time.Second), 0, now); d != 0 {
		t.Fatalf("remaining quota = %v", d)
	}
}
