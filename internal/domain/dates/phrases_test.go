package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/cloudtodo/core/internal/domain/entities"
)

func TestExtractDuePhrase(t *testing.T) {
	tests := []struct {
		text        string
		wantContent string
		wantPhrase  string
		wantOK      bool
	}{
		{"Buy milk due tomorrow 18:00", "Buy milk", "tomorrow 18:00", true},
		{"Call Bob by friday", "Call Bob", "friday", true},
		{"Ship it UNTIL 2024-02-01", "Ship it", "2024-02-01", true},
		{"写报告 截止 明天", "写报告", "明天", true},
		{"写报告截止周五", "写报告", "周五", true},
		{"due tomorrow", "", "tomorrow", true},
		{"Read a book", "Read a book", "", false},
		{"Goodbye party", "Goodbye party", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			content, phrase, ok := ExtractDuePhrase(tt.text)
			if content != tt.wantContent || phrase != tt.wantPhrase || ok != tt.wantOK {
				t.Fatalf("ExtractDuePhrase(%q) = (%q, %q, %t), want (%q, %q, %t)",
					tt.text, content, phrase, ok, tt.wantContent, tt.wantPhrase, tt.wantOK)
			}
		})
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		text        string
		wantOffset  time.Duration
		wantMessage string
	}{
		{"30分钟前 call mom", 30 * time.Minute, "call mom"},
		{"2小时前", 2 * time.Hour, ""},
		{"提醒我 1天前", 24 * time.Hour, "提醒我"},
		{"2 hours before meeting prep", 2 * time.Hour, "meeting prep"},
		{"15 mins before", 15 * time.Minute, ""},
		{"pack bags 1 day before", 24 * time.Hour, "pack bags"},
		{"3 Days Before  check   tickets", 72 * time.Hour, "check tickets"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			offset, message, err := ParseOffset(tt.text)
			if err != nil {
				t.Fatalf("ParseOffset(%q) error: %v", tt.text, err)
			}
			if offset != tt.wantOffset || message != tt.wantMessage {
				t.Fatalf("ParseOffset(%q) = (%v, %q), want (%v, %q)",
					tt.text, offset, message, tt.wantOffset, tt.wantMessage)
			}
		})
	}
}

func TestParseOffsetRejectsMalformedText(t *testing.T) {
	tests := []string{
		"soon",
		"30 minutes",
		"before lunch",
		"分钟前",
		"99999999999 days before",
		"3651 days before",
		"5256001 minutes before",
		"99999999999天前",
	}
	for _, text := range tests {
		if _, _, err := ParseOffset(text); !errors.Is(err, entities.ErrInvalidReminderOffset) {
			t.Fatalf("ParseOffset(%q) error = %v, want ErrInvalidReminderOffset", text, err)
		}
	}

	got, _, err := ParseOffset("3650 days before")
	if err != nil || got != 3650*24*time.Hour {
		t.Fatalf("ParseOffset at the cap = %v, %v", got, err)
	}
}
