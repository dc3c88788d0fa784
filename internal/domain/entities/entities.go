package entities

import (
	"errors"
	"strings"
	"time"
)

// Common errors
var (
	ErrRecordNotFound        = errors.New("user record not found")
	ErrInvalidTaskNumber     = errors.New("invalid task number")
	ErrEmptyContent          = errors.New("task content is empty")
	ErrDateNotRecognized     = errors.New("date expression not recognized")
	ErrInvalidReminderOffset = errors.New("invalid reminder offset")
	ErrReminderNeedsDueDate  = errors.New("reminder requires a due date")
	ErrClearScopeRequired    = errors.New("clear scope is required")
	ErrUnknownFilter         = errors.New("unknown list filter")
	ErrUnknownSortKey        = errors.New("unknown sort key")
	ErrUnknownSetting        = errors.New("unknown setting")
	ErrInvalidSettingValue   = errors.New("invalid setting value")
	ErrInvalidPriority       = errors.New("priority must be between 1 and 5")
	ErrInvalidSnapshot       = errors.New("invalid snapshot")
)

const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

// priorityLabels is indexed by priority value; index 0 is unused.
var priorityLabels = [...]string{
	"",
	"🔴 Highest",
	"🟠 High",
	"🟡 Medium",
	"🟢 Low",
	"⚪ Lowest",
}

// PriorityLabel returns the display label for p, falling back to the default priority.
func PriorityLabel(p int) string {
	if !ValidPriority(p) {
		p = DefaultPriority
	}
	return priorityLabels[p]
}

func ValidPriority(p int) bool {
	return p >= MinPriority && p <= MaxPriority
}

// Reminder is a one-shot notification tied to a task's due date.
type Reminder struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Sent    bool      `json:"sent"`
}

// IsDue reports whether the reminder should fire at now.
func (r *Reminder) IsDue(now time.Time) bool {
	return r != nil && !r.Sent && !r.Time.After(now)
}

// Task represents a single to-do item owned by a user
type Task struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Completed bool       `json:"completed"`
	Priority  int        `json:"priority"`
	Created   time.Time  `json:"created"`
	DueDate   *time.Time `json:"dueDate"`
	Tags      []string   `json:"tags"`
	Reminder  *Reminder  `json:"reminder,omitempty"`
}

// IsOverdue reports whether the task is pending and past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// MatchesTag reports whether any tag contains needle, ignoring case.
func (t *Task) MatchesTag(needle string) bool {
	needle = strings.ToLower(needle)
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Matches reports whether the query is a case-insensitive substring of the content or any tag.
func (t *Task) Matches(query string) bool {
	if strings.Contains(strings.ToLower(t.Content), strings.ToLower(query)) {
		return true
	}
	return t.MatchesTag(query)
}

// Settings holds per-user preferences
type Settings struct {
	Timezone            string   `json:"timezone" validate:"required,timezone"`
	ReminderTime        string   `json:"reminderTime" validate:"omitempty,datetime=15:04"`
	Language            string   `json:"language" validate:"omitempty,max=16"`
	DefaultPriority     int      `json:"defaultPriority" validate:"min=1,max=5"`
	DefaultTags         []string `json:"defaultTags"`
	NotificationEnabled bool     `json:"notificationEnabled"`
}

// Location resolves the configured timezone, falling back to UTC.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PriorityOrDefault returns the default priority for new tasks.
func (s Settings) PriorityOrDefault() int {
	if ValidPriority(s.DefaultPriority) {
		return s.DefaultPriority
	}
	return DefaultPriority
}

// DefaultSettings returns a fresh copy of the settings every new user starts with.
func DefaultSettings() Settings {
	return Settings{
		Timezone:            "UTC",
		ReminderTime:        "09:00",
		Language:            "en",
		DefaultPriority:     DefaultPriority,
		DefaultTags:         []string{},
		NotificationEnabled: true,
	}
}

// UserRecord is the whole persisted state of one user, stored and rewritten as a unit.
type UserRecord struct {
	UserID   string       `json:"userId"`
	Tasks    []Task       `json:"tasks"`
	Settings Settings     `json:"settings"`
	IndexMap DisplayIndex `json:"indexMap"`
}

// NewUserRecord creates the record a user gets on first interaction.
func NewUserRecord(userID string) *UserRecord {
	return &UserRecord{
		UserID:   userID,
		Tasks:    []Task{},
		Settings: DefaultSettings(),
	}
}

// Normalize repairs fields that older or hand-written records may lack.
func (r *UserRecord) Normalize() {
	if r.Tasks == nil {
		r.Tasks = []Task{}
	}
	if r.Settings.Timezone == "" {
		r.Settings.Timezone = "UTC"
	}
	if r.Settings.DefaultTags == nil {
		r.Settings.DefaultTags = []string{}
	}
	if !ValidPriority(r.Settings.DefaultPriority) {
		r.Settings.DefaultPriority = DefaultPriority
	}
	for i := range r.Tasks {
		if r.Tasks[i].Tags == nil {
			r.Tasks[i].Tags = []string{}
		}
		if !ValidPriority(r.Tasks[i].Priority) {
			r.Tasks[i].Priority = DefaultPriority
		}
	}
}

// Resolve maps a user-visible number to a storage position through the display index.
func (r *UserRecord) Resolve(displayNumber int) (int, error) {
	pos, ok := r.IndexMap.Resolve(displayNumber)
	if !ok || pos < 0 || pos >= len(r.Tasks) {
		return 0, ErrInvalidTaskNumber
	}
	return pos, nil
}

// TaskAt resolves a display number and returns the task it addresses.
func (r *UserRecord) TaskAt(displayNumber int) (*Task, int, error) {
	pos, err := r.Resolve(displayNumber)
	if err != nil {
		return nil, 0, err
	}
	return &r.Tasks[pos], pos, nil
}

// PositionOf returns the storage position of the task with the given id, or -1.
func (r *UserRecord) PositionOf(id string) int {
	for i := range r.Tasks {
		if r.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// SplitTags splits text on runs of whitespace and commas, dropping empty entries.
func SplitTags(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '，' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}
