package normalize

import (
	"testing"
)

func TestText_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{name: "identity", in: "fix: parse ts", out: "fix: parse ts"},
		{name: "empty", in: "", out: ""},
		{name: "invalid utf8 dropped", in: string([]byte{0xff, 'f', 'o', 'o', 0x80, ' ', 'b', 'a', 'r'}), out: "foo bar"},
		{name: "controls dropped", in: "a\x00b\x07c\x7f", out: "abc"},
		{name: "nfc composes", in: "cafe\u0301", out: "caf\u00e9"},
		{name: "zero widths removed", in: "ru\u200bst\ufeff", out: "rust"},
		{name: "spaces collapse per line", in: "  a\t\tb   c  ", out: "a b c"},
		{name: "line breaks kept", in: "subject\r\n\r\n\r\nbody\nmore\n\n", out: "subject\n\nbody\nmore"},
		{name: "hangul kept", in: "  커밋   메시지 ", out: "커밋 메시지"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Text(tc.in)
			if got != tc.out {
				t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.out)
			}
			if again := Text(got); again != got {
				t.Fatalf("Text not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestKey(t *testing.T) {
	tests := []struct{ a, b string }{
		{"alice", "Alice"},
		{"\uff41\uff4c\uff49\uff43\uff45", "alice"},
		{" bob\u200d", "BOB"},
	}
	for _, tc := range tests {
		if !Equal(tc.a, tc.b) {
			t.Fatalf("Equal(%q, %q) = false (%q vs %q)", tc.a, tc.b, Key(tc.a), Key(tc.b))
		}
	}
	if Equal("alice", "alicia") {
		t.Fatal("different ids folded together")
	}
	if Key("   ") != "" {
		t.Fatal("blank key")
	}
}

func TestSanitize_FastPath(t *testing.T) {
	in := "plain\ttext\nwith breaks"
	if got := Sanitize(in); got != in {
		t.Fatalf("Sanitize(%q) = %q", in, got)
	}
	if got := Sanitize("x\u0085y"); got != "xy" {
		t.Fatalf("C1 control kept: %q", got)
	}
}

func TestSanitize_Drops(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a\x00b", "ab"},
		{"a\x7fb\x01", "ab"},
		{"ok\xffbad", "okbad"},
		{"keep \ufffd", "keep \ufffd"},
		{"\r\n\tindent", "\r\n\tindent"},
		{"\u00e9t\u00e9", "\u00e9t\u00e9"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
