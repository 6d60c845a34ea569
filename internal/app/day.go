package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

var englishDays = map[string]weekday.Weekday{
	"monday":    weekday.Monday,
	"tuesday":   weekday.Tuesday,
	"wednesday": weekday.Wednesday,
	"thursday":  weekday.Thursday,
	"friday":    weekday.Friday,
}

// resolveDay turns a day override into a Weekday. Empty means the working
// day of now; Saturday, Sunday, "helg" and "weekend" resolve to None.
func resolveDay(override string, now time.Time) (weekday.Weekday, error) {
	s := strings.TrimSpace(override)
	if s == "" {
		if d, ok := weekday.FromTime(now); ok {
			return d, nil
		}
		return weekday.None, nil
	}
	if d, ok := weekday.Parse(s); ok {
		return d, nil
	}
	switch n := weekday.Normalize(s); n {
	case "helg", "weekend", "lördag", "söndag", "saturday", "sunday":
		return weekday.None, nil
	default:
		if d, ok := englishDays[n]; ok {
			return d, nil
		}
	}
	return weekday.None, fmt.Errorf("unknown day %q", override)
}
