package pg

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTracer_Record(t *testing.T) {
	cases := []struct {
		name  string
		cfg   Config
		took  time.Duration
		err   error
		level string
	}{
		{name: "quiet", cfg: Config{Slow: time.Second}, took: time.Millisecond},
		{name: "slow", cfg: Config{Slow: time.Second}, took: 2 * time.Second, level: `"level":"warn"`},
		{name: "error", cfg: Config{}, took: time.Millisecond, err: errors.New("relation missing"), level: `"level":"warn"`},
		{name: "log all", cfg: Config{LogSQL: true}, took: time.Millisecond, level: `"level":"debug"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			root := zerolog.New(&buf).Level(zerolog.InfoLevel)
			newTracer(root, tc.cfg).record("select day\n\t from attendance_buckets", tc.took, 3, tc.err)

			out := buf.String()
			if tc.level == "" {
				if out != "" {
					t.Fatalf("unexpected line %s", out)
				}
				return
			}
			for _, want := range []string{tc.level, `"sql":"select day from attendance_buckets"`, `"rows":3`, `"component":"pg"`} {
				if !strings.Contains(out, want) {
					t.Fatalf("missing %s in %s", want, out)
				}
			}
		})
	}
}
