// Package logger wraps zerolog with process defaults and pulls request and
// run identifiers off the context for child loggers
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures the root logger. FromEnv fills it from LOG_*
type Options struct {
	Level       string `koanf:"level"`
	Format      string `koanf:"format"` // console or json
	Service     string `koanf:"service"`
	Component   string `koanf:"component"`
	WithCaller  bool   `koanf:"caller"`
	SampleEvery int    `koanf:"sample_every"`

	Writer       io.Writer         `koanf:"-"`
	StaticFields map[string]string `koanf:"-"`
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE, LOG_COMPONENT, LOG_CALLER
// and LOG_SAMPLE_EVERY. It cannot go through the config package, which logs
func FromEnv() Options {
	var opt Options
	k := koanf.New(".")
	_ = k.Load(env.Provider("LOG_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LOG_"))
	}), nil)
	_ = k.UnmarshalWithConf("", &opt, koanf.UnmarshalConf{Tag: "koanf"})

	opt.Level = orDefault(opt.Level, "debug")
	opt.Format = orDefault(opt.Format, "console")
	return opt
}

func orDefault(s, def string) string {
	if s = strings.ToLower(strings.TrimSpace(s)); s == "" {
		return def
	}
	return s
}

// Logger is the project-wide logging type
type Logger = zerolog.Logger

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Get returns the root logger, building it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger. Only the first call has any effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stdout
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		fields := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
		if bi, ok := debug.ReadBuildInfo(); ok {
			fields = fields.Str("go_version", bi.GoVersion)
		}
		static := map[string]string{"service": opt.Service, "component": opt.Component}
		for k, v := range opt.StaticFields {
			static[k] = v
		}
		for k, v := range static {
			if v != "" {
				fields = fields.Str(k, v)
			}
		}
		if opt.WithCaller {
			fields = fields.Caller()
		}

		log := fields.Logger()
		if opt.SampleEvery > 1 {
			log = log.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
		}
		root.Store(&log)
	})
}

// parseLevel maps a level name onto zerolog, defaulting to debug
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return lvl
}

type ctxKey int

const (
	requestKey ctxKey = iota
	runKey
)

func withValue(ctx context.Context, k ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

// WithRequest stamps the HTTP request id onto ctx
func WithRequest(ctx context.Context, reqID string) context.Context {
	return withValue(ctx, requestKey, reqID)
}

// WithRun stamps a batch run id (migrations, rebuilds, exports) onto ctx
func WithRun(ctx context.Context, runID string) context.Context {
	return withValue(ctx, runKey, runID)
}

// RunID returns the id stamped by WithRun
func RunID(ctx context.Context) string {
	s, _ := ctx.Value(runKey).(string)
	return s
}

// C returns a child of the root logger carrying request_id and run_id from ctx
func C(ctx context.Context) *Logger {
	b := Get().With()
	if s, _ := ctx.Value(requestKey).(string); s != "" {
		b = b.Str("request_id", s)
	}
	if s := RunID(ctx); s != "" {
		b = b.Str("run_id", s)
	}
	l := b.Logger()
	return &l
}

// Named returns a child logger tagged with component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
