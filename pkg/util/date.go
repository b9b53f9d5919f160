package util

import (
	"strconv"
	"time"
	_ "time/tzdata" // Asia/Shanghai must resolve in slim containers
)

const DateLayout = "2006-01-02"

// LoadLocation resolves name, falling back to a fixed UTC+8 zone.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = "Asia/Shanghai"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// Session is a continuous trading window, in minutes after midnight.
type Session struct {
	Open  int
	Close int
}

// AShareSessions are the continuous-auction windows of SSE/SZSE.
var AShareSessions = []Session{
	{Open: 9*60 + 30, Close: 11*60 + 30},
	{Open: 13 * 60, Close: 15 * 60},
}

// IsTradingDay reports Monday..Friday. Exchange holidays are not modelled.
func IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// InTradingSession reports whether t, viewed in loc, falls inside a session.
func InTradingSession(t time.Time, loc *time.Location) bool {
	if loc != nil {
		t = t.In(loc)
	}
	if !IsTradingDay(t) {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	for _, s := range AShareSessions {
		if m >= s.Open && m <= s.Close {
			return true
		}
	}
	return false
}

// TradingDate formats t as YYYY-MM-DD in loc.
func TradingDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD or YYYYMMDD.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if len(s) == 8 {
		return time.ParseInLocation("20060102", s, loc)
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}
