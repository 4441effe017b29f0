// Package config reads service configuration from environment variables.
// Domain settings that are not flat key/values live in the roster adapter
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"garden/internal/platform/logger"
)

// Conf is a prefixed view over the environment, e.g. CORE_MESSAGES_ or
// SERVICE_PGSQL_. The zero value reads unprefixed keys
type Conf struct{ prefix string }

// New returns the unprefixed root view
func New() Conf { return Conf{} }

// Prefix nests p under the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(key string) string { return strings.TrimSpace(os.Getenv(c.key(key))) }

// may parses key with parse, falling back to def when unset. A value that
// does not parse is logged and replaced by def
func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Err(err).Str("key", c.key(key)).Str("value", s).Msg("unparsable setting, using default")
		return def
	}
	return v
}

// MayString returns the trimmed value or def
func (c Conf) MayString(key, def string) string {
	if s := c.lookup(key); s != "" {
		return s
	}
	return def
}

func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma separated value, dropping blanks
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.lookup(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns def when unset and panics on a value outside allowed.
// Matching ignores case; the allowed spelling is returned
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.lookup(key)
	if v == "" {
		return def
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid setting")
	return ""
}
