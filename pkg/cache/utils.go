package cache

import (
	"fmt"
	"strings"
)

// Key joins the parts with ":", e.g. Key("bars", "600519", 120) = "bars:600519:120".
func Key(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}
