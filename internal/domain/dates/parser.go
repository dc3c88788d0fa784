// Package dates turns short natural-language date phrases into absolute timestamps.
// English and Simplified Chinese vocabulary are both understood.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cloudtodo/core/internal/domain/entities"
)

var (
	timeOfDayRe        = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	todayRe            = regexp.MustCompile(`(?i)\btoday\b|今天`)
	dayAfterTomorrowRe = regexp.MustCompile(`(?i)\bday after tomorrow\b|后天`)
	tomorrowRe         = regexp.MustCompile(`(?i)\btomorrow\b|明天`)
	nextWeekRe         = regexp.MustCompile(`(?i)\bnext week\b|下周|下星期`)
	weekdayRe          = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)\b|(?:周|星期|礼拜)([一二三四五六日天])`)
	relativeDaysRe     = regexp.MustCompile(`(?i)\b(\d+)\s*days?\s+from\s+now\b|\bin\s+(\d+)\s+days?\b|(\d+)\s*天后`)
	monthDayEnRe       = regexp.MustCompile(`(?i)\b(january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	monthDayZhRe       = regexp.MustCompile(`(\d{1,2})月(\d{1,2})[日号]?`)
	fullDateRe         = regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	shortDateRe        = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})\b`)
)

var englishWeekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

var chineseWeekdays = map[string]time.Weekday{
	"一": time.Monday, "二": time.Tuesday, "三": time.Wednesday, "四": time.Thursday,
	"五": time.Friday, "六": time.Saturday, "日": time.Sunday, "天": time.Sunday,
}

var englishMonths = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// Parser resolves date expressions against a reference time.
// The zero value is ready to use.
type Parser struct{}

// NewParser creates a parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse resolves text relative to ref, in ref's location.
//
// An explicit HH:MM sets the time of day on whatever date is resolved; without one the
// result is the end of that day. When no pattern matches, Parse returns the end of the
// reference day together with entities.ErrDateNotRecognized so callers that need a
// strict answer can tell the fallback apart from a genuine match.
func (p *Parser) Parse(text string, ref time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	fallback := endOfDay(ref)

	hour, minute, hasTime := timeOfDay(text)
	at := func(t time.Time) time.Time {
		if hasTime {
			return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
		}
		return endOfDay(t)
	}

	switch {
	case todayRe.MatchString(text):
		return at(ref), nil
	case dayAfterTomorrowRe.MatchString(text):
		return at(ref.AddDate(0, 0, 2)), nil
	case tomorrowRe.MatchString(text):
		return at(ref.AddDate(0, 0, 1)), nil
	case nextWeekRe.MatchString(text):
		return at(ref.AddDate(0, 0, 7)), nil
	}

	if m := weekdayRe.FindStringSubmatch(text); m != nil {
		var target time.Weekday
		if m[1] != "" {
			target = englishWeekdays[strings.ToLower(m[1])]
		} else {
			target = chineseWeekdays[m[2]]
		}
		offset := int(target) - int(ref.Weekday())
		if offset <= 0 {
			offset += 7
		}
		return at(ref.AddDate(0, 0, offset)), nil
	}

	if m := relativeDaysRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(firstNonEmpty(m[1], m[2], m[3]))
		if err != nil {
			return fallback, fmt.Errorf("%w: %q", entities.ErrDateNotRecognized, text)
		}
		return at(ref.AddDate(0, 0, n)), nil
	}

	if month, day, ok := monthDay(text); ok {
		t, valid := calendarDate(ref.Year(), month, day, ref.Location())
		if !valid {
			return fallback, fmt.Errorf("%w: %q", entities.ErrDateNotRecognized, text)
		}
		t = at(t)
		if t.Before(ref) {
			next, valid := calendarDate(ref.Year()+1, month, day, ref.Location())
			if !valid {
				return fallback, fmt.Errorf("%w: %q", entities.ErrDateNotRecognized, text)
			}
			t = at(next)
		}
		return t, nil
	}

	if m := fullDateRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		t, valid := calendarDate(year, time.Month(month), day, ref.Location())
		if !valid {
			return fallback, fmt.Errorf("%w: %q", entities.ErrDateNotRecognized, text)
		}
		return at(t), nil
	}

	if m := shortDateRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		t, valid := calendarDate(ref.Year(), time.Month(month), day, ref.Location())
		if !valid {
			return fallback, fmt.Errorf("%w: %q", entities.ErrDateNotRecognized, text)
		}
		return at(t), nil
	}

	if hasTime {
		return at(ref), nil
	}
	return fallback, fmt.Errorf("%w: %q", entities.ErrDateNotRecognized, text)
}

func timeOfDay(text string) (int, int, bool) {
	m := timeOfDayRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h > 23 || min > 59 {
		return 0, 0, false
	}
	return h, min, true
}

func monthDay(text string) (time.Month, int, bool) {
	if m := monthDayEnRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[2])
		return englishMonths[strings.ToLower(m[1])[:3]], day, true
	}
	if m := monthDayZhRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		return time.Month(month), day, true
	}
	return 0, 0, false
}

// calendarDate builds midnight of the given day, rejecting values time.Date would normalize.
func calendarDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
