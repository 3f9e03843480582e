package adapter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

var daysAgoRegex = regexp.MustCompile(`(\d+)\s+days?`)

// parseRelativeDate converts strings like "Posted Today", "Posted 5 Days Ago"
// or "Posted 30+ Days Ago" into a YYYY-MM-DD date relative to now. It returns
// "" for anything it does not recognize.
func parseRelativeDate(s string, now time.Time) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(s, "today"):
		return today.Format(isoDate)
	case strings.Contains(s, "yesterday"):
		return today.AddDate(0, 0, -1).Format(isoDate)
	case strings.Contains(s, "30+"):
		return today.AddDate(0, 0, -30).Format(isoDate)
	}

	m := daysAgoRegex.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	return today.AddDate(0, 0, -n).Format(isoDate)
}

// unixMilliDate converts a Unix millisecond timestamp to a UTC date, or ""
// when the timestamp is unset.
func unixMilliDate(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(isoDate)
}

// firstNonEmpty returns the first non-blank value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
