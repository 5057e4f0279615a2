// File: services/schedule/calendar.go
package schedule

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the patient-facing date format (DD/MM/YYYY).
const DateLayout = "02/01/2006"

// ISOLayout is the sortable form stored alongside each booking.
const ISOLayout = "2006-01-02"

// ErrInvalidDateFormat marks a date string that cannot be parsed as DD/MM/YYYY.
var ErrInvalidDateFormat = errors.New("invalid date format, expected DD/MM/YYYY")

// ParseDate parses a DD/MM/YYYY date string.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// FormatDate renders a time as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ToISO converts a DD/MM/YYYY date string to YYYY-MM-DD.
func ToISO(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Format(ISOLayout), nil
}

// IsBusinessDay reports whether the date falls on Monday through Friday.
func IsBusinessDay(date string) (bool, error) {
	t, err := ParseDate(date)
	if err != nil {
		return false, err
	}
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday, nil
}

// NextWeekday returns the next calendar date with the given weekday strictly
// after the reference date.
func NextWeekday(after time.Time, weekday time.Weekday) time.Time {
	days := (int(weekday) - int(after.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return after.AddDate(0, 0, days)
}

// weekdayNames maps Portuguese weekday names (accented and plain spellings)
// to Go weekdays. The "-feira" suffix is stripped before lookup.
var weekdayNames = map[string]time.Weekday{
	"domingo": time.Sunday,
	"segunda": time.Monday,
	"terça":   time.Tuesday,
	"terca":   time.Tuesday,
	"quarta":  time.Wednesday,
	"quinta":  time.Thursday,
	"sexta":   time.Friday,
	"sábado":  time.Saturday,
	"sabado":  time.Saturday,
}

// ParseWeekday resolves a Portuguese weekday name. The second return value
// reports whether the text named a weekday at all.
func ParseWeekday(text string) (time.Weekday, bool) {
	name := strings.ToLower(strings.TrimSpace(text))
	name = strings.TrimSuffix(name, "-feira")
	wd, ok := weekdayNames[name]
	return wd, ok
}

var weekdayLabels = [7]string{
	"domingo",
	"segunda-feira",
	"terça-feira",
	"quarta-feira",
	"quinta-feira",
	"sexta-feira",
	"sábado",
}

// WeekdayName returns the Portuguese name of a weekday.
func WeekdayName(wd time.Weekday) string {
	return weekdayLabels[int(wd)]
}
