package findings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrInvalidStartDate = errors.New("invalid start date")

// EpochSeconds converts a human-readable date into Unix seconds for the
// since filter. ok is false when date is empty and no filter applies.
//
// The ISO date-only forms (2024-01-01, 2024-01, 2024) are UTC midnight; any
// other form without an explicit zone is read in loc.
func EpochSeconds(date string, loc *time.Location) (secs int64, ok bool, err error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, false, nil
	}
	if loc == nil {
		loc = time.Local
	}

	t, err := parseDate(date, loc)
	if err != nil {
		return 0, false, fmt.Errorf("%w %q: %v", ErrInvalidStartDate, date, err)
	}

	// Unix floors toward negative infinity, same as floor(ms/1000).
	return t.UTC().Truncate(time.Millisecond).Unix(), true, nil
}

var dateOnlyLayouts = []string{"2006-01-02", "2006-01", "2006"}

func parseDate(date string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, date); err == nil {
		return t, nil
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t, nil
		}
	}
	return dateparse.ParseIn(date, loc)
}
