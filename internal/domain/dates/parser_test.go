package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/cloudtodo/core/internal/domain/entities"
)

// Wednesday morning.
var ref = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func eod(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestParseRecognized(t *testing.T) {
	tests := []struct {
		text string
		want time.Time
	}{
		{"today", eod(2024, 1, 10)},
		{"今天 20:15", at(2024, 1, 10, 20, 15)},
		{"tomorrow 18:00", at(2024, 1, 11, 18, 0)},
		{"Tomorrow", eod(2024, 1, 11)},
		{"明天", eod(2024, 1, 11)},
		{"day after tomorrow", eod(2024, 1, 12)},
		{"后天 9:30", at(2024, 1, 12, 9, 30)},
		{"next week", eod(2024, 1, 17)},
		{"下周", eod(2024, 1, 17)},
		{"friday 17:00", at(2024, 1, 12, 17, 0)},
		{"Mon", eod(2024, 1, 15)},
		{"wednesday", eod(2024, 1, 17)},
		{"周一", eod(2024, 1, 15)},
		{"星期天", eod(2024, 1, 14)},
		{"3 days from now", eod(2024, 1, 13)},
		{"in 2 days", eod(2024, 1, 12)},
		{"5天后", eod(2024, 1, 15)},
		{"March 1", eod(2024, 3, 1)},
		{"sept. 3", eod(2024, 9, 3)},
		{"December 3", eod(2024, 12, 3)},
		{"Dec 25th 10:00", at(2024, 12, 25, 10, 0)},
		{"Jan 10", eod(2024, 1, 10)},
		{"Jan 5", eod(2025, 1, 5)},
		{"1月5日", eod(2025, 1, 5)},
		{"3月1号", eod(2024, 3, 1)},
		{"2024-02-29", eod(2024, 2, 29)},
		{"2024/3/5 14:00", at(2024, 3, 5, 14, 0)},
		{"2024-01-11T12:30", at(2024, 1, 11, 12, 30)},
		{"02/15", eod(2024, 2, 15)},
		{"18:00", at(2024, 1, 10, 18, 0)},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := p.Parse(tt.text, ref)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.text, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseWeekdayNeverResolvesToToday(t *testing.T) {
	p := NewParser()
	for offset := 0; offset < 7; offset++ {
		day := ref.AddDate(0, 0, offset)
		got, err := p.Parse(day.Weekday().String(), ref)
		if err != nil {
			t.Fatalf("Parse(%s) error: %v", day.Weekday(), err)
		}
		diff := int(got.Sub(StartOfDay(ref)).Hours() / 24)
		if diff < 1 || diff > 7 {
			t.Fatalf("Parse(%s) resolved %d days ahead, want 1..7", day.Weekday(), diff)
		}
	}
}

func TestParseNotRecognized(t *testing.T) {
	tests := []string{
		"someday",
		"",
		"2024-13-01",
		"2024-02-30",
		"14/02",
		"Feb 30",
		"25:99",
		"market 5",
		"decade 3",
		"junk 12",
	}

	p := NewParser()
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			got, err := p.Parse(text, ref)
			if !errors.Is(err, entities.ErrDateNotRecognized) {
				t.Fatalf("Parse(%q) error = %v, want ErrDateNotRecognized", text, err)
			}
			if !got.Equal(eod(2024, 1, 10)) {
				t.Fatalf("Parse(%q) fallback = %v, want end of reference day", text, got)
			}
		})
	}
}

func TestParseKeepsReferenceLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	local := time.Date(2024, 1, 10, 23, 30, 0, 0, loc)

	got, err := NewParser().Parse("tomorrow 09:00", local)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 11, 9, 0, 0, 0, loc)
	if !got.Equal(want) || got.Location() != loc {
		t.Fatalf("got %v, want %v", got, want)
	}
}
