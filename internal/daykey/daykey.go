// Package daykey encodes calendar dates as the six character partition keys
// used by the order store (YYMMDD, years 2000-2099).
package daykey

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Len is the length of every day key.
const Len = 6

// ErrInvalid is returned when a string is not a valid day key.
var ErrInvalid = errors.New("invalid day key")

// From encodes the calendar date of t (in t's location) as a day key.
// Years outside 2000-2099 lose their century.
func From(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%02d%02d%02d", y%100, int(m), d)
}

// Parse decodes a day key into midnight of that date in loc.
// A nil loc means UTC.
func Parse(key string, loc *time.Location) (time.Time, error) {
	if len(key) != Len {
		return time.Time{}, errors.Wrapf(ErrInvalid, "%q: want %d digits", key, Len)
	}
	var parts [3]int
	for i := range parts {
		hi, lo := key[2*i], key[2*i+1]
		if !isDigit(hi) || !isDigit(lo) {
			return time.Time{}, errors.Wrapf(ErrInvalid, "%q: non-digit", key)
		}
		parts[i] = int(hi-'0')*10 + int(lo-'0')
	}
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := 2000+parts[0], parts[1], parts[2]
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, errors.Wrapf(ErrInvalid, "%q: month or day out of range", key)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow (e.g. Feb 30), which would not round-trip.
	if t.Day() != day {
		return time.Time{}, errors.Wrapf(ErrInvalid, "%q: no such day", key)
	}
	return t, nil
}

// Valid reports whether key is a well-formed day key.
func Valid(key string) bool {
	_, err := Parse(key, time.UTC)
	return err == nil
}

// Resolve turns a user supplied day selector into a day key. It accepts a day
// key, an ISO date (2006-01-02), or "today" evaluated at now in loc.
func Resolve(selector string, now time.Time, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch {
	case selector == "today" || selector == "":
		return From(now.In(loc)), nil
	case len(selector) == Len:
		if !Valid(selector) {
			return "", errors.Wrapf(ErrInvalid, "%q", selector)
		}
		return selector, nil
	default:
		t, err := time.ParseInLocation(time.DateOnly, selector, loc)
		if err != nil {
			return "", errors.Wrapf(ErrInvalid, "%q", selector)
		}
		return From(t), nil
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
