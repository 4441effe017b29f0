// Package strings holds the few string helpers modules share
package strings

import std "strings"

// MustString panics naming what is missing when s is blank
func MustString(s, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}

// MustPrefix turns " attendance/ " into "/attendance". Blank or "/" panics
func MustPrefix(s string) string {
	if s = std.Trim(std.TrimSpace(s), "/ "); s == "" {
		panic("root path is required")
	}
	return "/" + s
}

// Deref reads an optional field, nil reads as ""
func Deref(ps *string) string {
	if ps != nil {
		return *ps
	}
	return ""
}
