package adapter

import "testing"

func TestParseRelativeDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Posted Today", "2026-02-17"},
		{"posted yesterday", "2026-02-16"},
		{"Posted 1 Day Ago", "2026-02-16"},
		{"Posted 3 Days Ago", "2026-02-14"},
		{"Posted 17 Days Ago", "2026-01-31"},
		{"Posted 30+ Days Ago", "2026-01-18"},
		{"", ""},
		{"Recently", ""},
	}
	for _, tt := range tests {
		if got := parseRelativeDate(tt.in, fixedNow); got != tt.want {
			t.Errorf("parseRelativeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnixMilliDate(t *testing.T) {
	if got := unixMilliDate(0); got != "" {
		t.Errorf("unixMilliDate(0) = %q, want empty", got)
	}
	if got := unixMilliDate(fixedNow.UnixMilli()); got != "2026-02-17" {
		t.Errorf("unixMilliDate(now) = %q", got)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "b", "c"); got != "b" {
		t.Errorf("firstNonEmpty = %q, want b", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}
