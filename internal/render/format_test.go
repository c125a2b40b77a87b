package render

import "testing"

func TestFormatYen(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "¥0"},
		{80, "¥80"},
		{1000, "¥1,000"},
		{440000, "¥440,000"},
		{123456789, "¥123,456,789"},
	}
	for _, tc := range cases {
		if got := FormatYen(tc.in); got != tc.want {
			t.Fatalf("FormatYen(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDateJP(t *testing.T) {
	if got := FormatDateJP("2024-05-01"); got != "2024年05月01日" {
		t.Fatalf("got %q", got)
	}
	if got := FormatDateJP("not-a-date"); got != "not-a-date" {
		t.Fatalf("invalid input must pass through, got %q", got)
	}
	if got := FormatDateJP(""); got != "" {
		t.Fatalf("empty input must pass through, got %q", got)
	}
}
