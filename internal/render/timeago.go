package render

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	recentlyLabel = "Recently"
	justNowLabel  = "just now"
	agoLabel      = "ago"

	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

// Months are counted as 30 days and years as 365.
var relativeTimeMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: justNowLabel, DivBy: 1},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * day, Format: "1 day %s", DivBy: 1},
	{D: week, Format: "%d days %s", DivBy: day},
	{D: 2 * week, Format: "1 week %s", DivBy: 1},
	{D: month, Format: "%d weeks %s", DivBy: week},
	{D: 2 * month, Format: "1 month %s", DivBy: 1},
	{D: year, Format: "%d months %s", DivBy: month},
	{D: 2 * year, Format: "1 year %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d years %s", DivBy: year},
}

var postedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"January 2, 2006",
	"02/01/2006",
}

var humanReadableMarkers = []string{"ago", "recently", "just now", "yesterday", "today", "last ", "edited"}

// RelativeTime formats a posted-at value relative to now. Values that already
// read as relative text, or that cannot be parsed, are returned unchanged.
func RelativeTime(rawValue string, now time.Time) string {
	trimmed := strings.TrimSpace(rawValue)
	if trimmed == "" {
		return recentlyLabel
	}
	lowered := strings.ToLower(trimmed)
	for _, marker := range humanReadableMarkers {
		if strings.Contains(lowered, marker) {
			return trimmed
		}
	}
	postedAt, parsed := parsePostedAt(trimmed)
	if !parsed {
		return trimmed
	}
	return relativeDuration(postedAt, now)
}

func parsePostedAt(value string) (time.Time, bool) {
	if epochValue, parseErr := strconv.ParseInt(value, 10, 64); parseErr == nil {
		if len(value) >= 13 {
			return time.UnixMilli(epochValue), true
		}
		if len(value) >= 9 {
			return time.Unix(epochValue, 0), true
		}
		return time.Time{}, false
	}
	for _, layout := range postedAtLayouts {
		if parsedTime, parseErr := time.Parse(layout, value); parseErr == nil {
			return parsedTime, true
		}
	}
	return time.Time{}, false
}

func relativeDuration(postedAt time.Time, now time.Time) string {
	if now.Sub(postedAt) < time.Minute {
		return justNowLabel
	}
	return humanize.CustomRelTime(postedAt, now, agoLabel, agoLabel, relativeTimeMagnitudes)
}
