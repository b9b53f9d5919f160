package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseFloat reads a provider numeric cell. "-" and "" mean missing.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsSTName reports ST / *ST / delisting-risk names.
func IsSTName(name string) bool {
	n := strings.ToUpper(name)
	return strings.Contains(n, "ST") || strings.Contains(name, "退")
}

// IsStockCode reports a six digit A-share code.
func IsStockCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SecID maps a code to the provider's market-qualified id:
// Shanghai (6xxxxx, 9xxxxx) is "1.", everything else "0.".
func SecID(code string) string {
	if strings.HasPrefix(code, "6") || strings.HasPrefix(code, "9") {
		return "1." + code
	}
	return "0." + code
}
