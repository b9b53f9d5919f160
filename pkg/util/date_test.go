package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestInTradingSession(t *testing.T) {
	loc := LoadLocation("Asia/Shanghai")
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"morning open", time.Date(2024, 10, 10, 9, 30, 0, 0, loc), true},
		{"pre open", time.Date(2024, 10, 10, 9, 29, 0, 0, loc), false},
		{"lunch", time.Date(2024, 10, 10, 12, 0, 0, 0, loc), false},
		{"afternoon", time.Date(2024, 10, 10, 14, 59, 0, 0, loc), true},
		{"after close", time.Date(2024, 10, 10, 15, 1, 0, 0, loc), false},
		{"saturday", time.Date(2024, 10, 12, 10, 0, 0, 0, loc), false},
		// 02:00 UTC is 10:00 in Shanghai
		{"utc input", time.Date(2024, 10, 10, 2, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		if got := InTradingSession(tc.at, loc); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestTradingDateUsesLocation(t *testing.T) {
	loc := LoadLocation("Asia/Shanghai")
	// 20:00 UTC on the 10th is already the 11th in Shanghai
	at := time.Date(2024, 10, 10, 20, 0, 0, 0, time.UTC)
	if got := TradingDate(at, loc); got != "2024-10-11" {
		t.Fatalf("got %s", got)
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-03-05", "20240305"} {
		d, err := ParseDate(s, time.UTC)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if d.Year() != 2024 || d.Month() != time.March || d.Day() != 5 {
			t.Fatalf("%s: got %v", s, d)
		}
	}
}
