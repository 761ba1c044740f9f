package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestTruncateBytes(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"under budget", "hello", 10, "hello"},
		{"exact budget", "hello", 5, "hello"},
		{"ascii cut", "hello world", 5, "hello"},
		{"zero budget", "hello", 0, ""},
		{"negative budget", "hello", -1, "hello"},
		{"does not split two-byte rune", "héllo", 2, "h"},
		{"keeps whole two-byte rune", "héllo", 3, "hé"},
		{"does not split four-byte rune", "a🐕b", 4, "a"},
		{"keeps four-byte rune", "a🐕b", 5, "a🐕"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateBytes(tt.in, tt.limit); got != tt.want {
				t.Errorf("TruncateBytes(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTruncateBytes_NeverExceedsBudgetOrBreaksUTF8(t *testing.T) {
	text := strings.Repeat("Rex 🐕 à la maison, 日本語 ", 50)
	for limit := 0; limit <= len(text)+1; limit++ {
		got := TruncateBytes(text, limit)
		if len(got) > limit {
			t.Fatalf("limit %d: got %d bytes", limit, len(got))
		}
		if !utf8.ValidString(got) {
			t.Fatalf("limit %d: result is not valid UTF-8", limit)
		}
		if !strings.HasPrefix(text, got) {
			t.Fatalf("limit %d: result is not a prefix", limit)
		}
	}
}

func TestSplitRunes(t *testing.T) {
	if SplitRunes("", 3) != nil {
		t.Error("empty string should give nil")
	}
	got := SplitRunes("abcdefg", 3)
	if strings.Join(got, "|") != "abc|def|g" {
		t.Errorf("SplitRunes = %v", got)
	}
	got = SplitRunes("日本語テキスト", 2)
	if strings.Join(got, "") != "日本語テキスト" || len(got) != 4 {
		t.Errorf("SplitRunes multibyte = %v", got)
	}
	for _, p := range got {
		if utf8.RuneCountInString(p) > 2 {
			t.Errorf("piece %q exceeds 2 runes", p)
		}
	}
}
