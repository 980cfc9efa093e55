package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration string, accepting a day suffix ("7d",
// "1.5d") on top of the units time.ParseDuration understands.
func ParseDuration(s string) (time.Duration, error) {
	if trimmed, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", trimmed)
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(s)
}
