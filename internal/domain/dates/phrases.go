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
	duePhraseRe = regexp.MustCompile(`(?i)(?:^|\s)(?:due|by|until)\s+(.+)$|截止\s*(.+)$`)
	offsetEnRe  = regexp.MustCompile(`(?i)\b(\d+)\s*(minutes?|mins?|hours?|hrs?|days?)\s+before\b`)
	offsetZhRe  = regexp.MustCompile(`(\d+)\s*(分钟|小时|天)前`)
)

// ExtractDuePhrase splits "Buy milk due tomorrow" into the content and the date phrase
// following the first trigger word. ok is false when no trigger word is present.
func ExtractDuePhrase(text string) (content, phrase string, ok bool) {
	loc := duePhraseRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return strings.TrimSpace(text), "", false
	}
	for _, g := range []int{2, 4} {
		if loc[g] >= 0 {
			phrase = strings.TrimSpace(text[loc[g]:loc[g+1]])
			break
		}
	}
	return strings.TrimSpace(text[:loc[0]]), phrase, true
}

// maxReminderOffset caps how far before the due date a reminder may fire.
const maxReminderOffset = 3650 * 24 * time.Hour

// ParseOffset reads a relative reminder offset such as "30 minutes before" or "2小时前".
// It returns the offset and the remaining text with the offset phrase removed.
func ParseOffset(text string) (time.Duration, string, error) {
	for _, re := range []*regexp.Regexp{offsetZhRe, offsetEnRe} {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			return 0, "", fmt.Errorf("%w: %q", entities.ErrInvalidReminderOffset, text)
		}
		step := unitDuration(strings.ToLower(text[loc[4]:loc[5]]))
		if n > int(maxReminderOffset/step) {
			return 0, "", fmt.Errorf("%w: %q exceeds ten years", entities.ErrInvalidReminderOffset, text)
		}
		rest := strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:])
		return time.Duration(n) * step, strings.Join(strings.Fields(rest), " "), nil
	}
	return 0, "", fmt.Errorf("%w: %q", entities.ErrInvalidReminderOffset, text)
}

func unitDuration(unit string) time.Duration {
	switch {
	case unit == "分钟" || strings.HasPrefix(unit, "min"):
		return time.Minute
	case unit == "小时" || strings.HasPrefix(unit, "h"):
		return time.Hour
	default:
		return 24 * time.Hour
	}
}
