// Package time converts between instants and chat-export ts strings
package time

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Seconds bounds of representable instants, 0001-01-01 through 9999-12-31
const (
	minUnix = -62135596800
	maxUnix = 253402300799
)

// ParseUnixDecimal parses a Unix timestamp written as a decimal string
// ("1700000000.123456") into a UTC instant with microsecond precision.
// Anything strconv.ParseFloat accepts is accepted as long as it lands
// within years 1..9999; NaN and Inf are not
func ParseUnixDecimal(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: not a number", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("timestamp %q: not finite", s)
	}
	if f < minUnix || f >= maxUnix+1 {
		return time.Time{}, fmt.Errorf("timestamp %q: out of range", s)
	}
	if sec, frac, ok := splitPlain(s); ok {
		return time.Unix(sec, frac).UTC(), nil
	}
	sec := math.Floor(f)
	us := math.Round((f - sec) * 1e6)
	if us >= 1e6 {
		sec++
		us = 0
	}
	return time.Unix(int64(sec), int64(us)*int64(time.Microsecond)).UTC(), nil
}

// FormatUnixDecimal renders t the way chat exports write ts (6 fractional digits)
func FormatUnixDecimal(t time.Time) string {
	us := t.UnixMicro()
	sec, frac := us/1e6, us%1e6
	if frac < 0 {
		sec--
		frac += 1e6
	}
	return fmt.Sprintf("%d.%06d", sec, frac)
}

// splitPlain handles the common "digits[.digits]" form exactly, truncating
// past microseconds. Signs and exponents fall back to float parsing
func splitPlain(s string) (int64, int64, bool) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || !allDigits(whole) || !allDigits(frac) {
		return 0, 0, false
	}
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if len(frac) > 6 {
		frac = frac[:6]
	}
	frac += strings.Repeat("0", 6-len(frac))
	us, _ := strconv.ParseInt(frac, 10, 64)
	return sec, us * int64(time.Microsecond), true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
