// Package validate holds the input predicates used by conversation steps.
// Failures return user-facing errors; the engine prefixes them with a
// failure marker and re-arms the same step.
package validate

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted date input format.
const DateLayout = "2006-01-02"

// MinYear bounds year input for the duration report.
const MinYear = 2000

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var (
	ErrDateFormat  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrDateInPast  = errors.New("date is in the past")
	ErrEndBefore   = errors.New("end date precedes start date")
	ErrEmailFormat = errors.New("invalid email address")
	ErrYearFormat  = errors.New("invalid year, expected YYYY")
	ErrYearFuture  = errors.New("year is in the future")
	ErrYearTooOld  = errors.New("year is too early")
)

// Date parses input as YYYY-MM-DD. Unless allowPast is set, dates strictly
// earlier than now are rejected (a date equal to "today" parses to midnight
// and therefore counts as past for any later moment of the day, matching
// request submission semantics).
func Date(input string, now time.Time, allowPast bool) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(input))
	if err != nil {
		return time.Time{}, ErrDateFormat
	}
	if !allowPast && t.Before(now) {
		return time.Time{}, ErrDateInPast
	}
	return t, nil
}

// Ordered reports an error when end precedes start.
func Ordered(start, end time.Time) error {
	if end.Before(start) {
		return ErrEndBefore
	}
	return nil
}

// Email checks the conventional local@domain.tld shape. Uniqueness is
// enforced at commit time, not here.
func Email(input string) error {
	if !emailRe.MatchString(strings.TrimSpace(input)) {
		return ErrEmailFormat
	}
	return nil
}

// Year parses a calendar year between MinYear and the current year.
func Year(input string, now time.Time) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, ErrYearFormat
	}
	if year > now.Year() {
		return 0, ErrYearFuture
	}
	if year < MinYear {
		return 0, ErrYearTooOld
	}
	return year, nil
}
