package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// brokerTimestamp matches MT5-style "2024.01.01 10:00:00" and "2024-01-01 10:00:00".
var brokerTimestamp = regexp.MustCompile(`^(\d{4})[.-](\d{2})[.-](\d{2}) (\d{2}):(\d{2}):(\d{2})$`)

// ParseDate parses a broker or generic timestamp into a UTC instant.
// Broker timestamps carry no zone and are read as UTC wall-clock fields.
// Other inputs go through a general-purpose parser; zone-less values there
// are also taken as UTC.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if m := brokerTimestamp.FindStringSubmatch(s); m != nil {
		var p [6]int
		for i := range p {
			// The pattern only admits digits.
			p[i], _ = strconv.Atoi(m[i+1])
		}
		return time.Date(p[0], time.Month(p[1]), p[2], p[3], p[4], p[5], 0, time.UTC), true
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
