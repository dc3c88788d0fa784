package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/cloudtodo/core/internal/application/router"
	"github.com/cloudtodo/core/internal/domain/dates"
	"github.com/cloudtodo/core/internal/domain/entities"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

// Result is the outcome of one engine operation.
type Result struct {
	Text     string
	Document *ports.Document
	// Dirty is set when the record changed and must be written back.
	Dirty bool
}

// TaskService applies commands to a user's task collection
type TaskService struct {
	repo      ports.UserRecordRepository
	parser    *dates.Parser
	validate  *validator.Validate
	logger    *logger.Logger
	locks     *userLocks
	ids       *idGenerator
	now       func() time.Time
	serialize bool
}

// TaskServiceOption configures a TaskService
type TaskServiceOption func(*TaskService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *TaskService) { s.now = now }
}

// WithPerUserSerialization makes Lock block while another request for the same user is in flight
func WithPerUserSerialization(enabled bool) TaskServiceOption {
	return func(s *TaskService) { s.serialize = enabled }
}

// NewTaskService creates a new task service
func NewTaskService(repo ports.UserRecordRepository, logger *logger.Logger, opts ...TaskServiceOption) *TaskService {
	s := &TaskService{
		repo:      repo,
		parser:    dates.NewParser(),
		validate:  validator.New(),
		logger:    logger.WithComponent("task_service"),
		locks:     newUserLocks(),
		ids:       newIDGenerator(),
		now:       time.Now,
		serialize: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lock serializes work on one user's record. The returned func releases it.
func (s *TaskService) Lock(userID string) func() {
	if !s.serialize {
		return func() {}
	}
	return s.locks.lock(userID)
}

// Load reads a user's record, creating a fresh one on first contact.
func (s *TaskService) Load(ctx context.Context, userID string) (*entities.UserRecord, error) {
	start := time.Now()
	rec, err := s.repo.Get(ctx, userID)
	s.logger.LogStoreOperation("get", userID, time.Since(start), ignoreNotFound(err))

	if errors.Is(err, entities.ErrRecordNotFound) {
		return entities.NewUserRecord(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user record: %w", err)
	}

	rec.UserID = userID
	rec.Normalize()
	return rec, nil
}

// Save writes the whole record back.
func (s *TaskService) Save(ctx context.Context, rec *entities.UserRecord) error {
	start := time.Now()
	err := s.repo.Save(ctx, rec)
	s.logger.LogStoreOperation("save", rec.UserID, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to save user record: %w", err)
	}
	return nil
}

// Apply runs cmd against rec and persists the record when the operation changed it.
// On error rec is left unmodified and nothing is written.
func (s *TaskService) Apply(ctx context.Context, rec *entities.UserRecord, cmd router.Command) (ports.Reply, error) {
	now := s.now().In(rec.Settings.Location())

	var (
		res Result
		err error
	)

	switch cmd.Verb {
	case router.VerbHelp, router.VerbStart:
		res = Result{Text: helpText}
	case router.VerbAdd:
		res, err = s.Add(rec, cmd.Text, now)
	case router.VerbList:
		res, err = s.List(rec, cmd.Word, now)
	case router.VerbDone:
		res, err = s.Done(rec, cmd.Index)
	case router.VerbDelete:
		res, err = s.Delete(rec, cmd.Index)
	case router.VerbEdit:
		res, err = s.Edit(rec, cmd.Index, cmd.Text)
	case router.VerbPrio:
		res, err = s.SetPriority(rec, cmd.Index, cmd.Priority)
	case router.VerbDue:
		res, err = s.SetDue(rec, cmd.Index, cmd.Text, now)
	case router.VerbTag:
		res, err = s.SetTags(rec, cmd.Index, cmd.Text)
	case router.VerbSearch:
		res, err = s.Search(rec, cmd.Text, now)
	case router.VerbStats:
		res = s.statsResult(rec, now)
	case router.VerbSettings:
		res, err = s.UpdateSettings(rec, cmd.Word, cmd.Text)
	case router.VerbRemind:
		res, err = s.Remind(rec, cmd.Index, cmd.Text)
	case router.VerbClear:
		res, err = s.Clear(rec, cmd.Word, now)
	case router.VerbSort:
		res, err = s.Sort(rec, cmd.Word)
	case router.VerbExport:
		res, err = s.Export(rec, now)
	default:
		err = fmt.Errorf("no handler for verb %q", cmd.Verb)
	}
	if err != nil {
		return ports.Reply{}, err
	}

	if res.Dirty {
		if err := s.Save(ctx, rec); err != nil {
			return ports.Reply{}, err
		}
	}

	return ports.Reply{Text: res.Text, Document: res.Document}, nil
}

// Add creates a task, lifting an embedded "due ..." phrase into its due date.
// A phrase the date parser does not recognize stays part of the content.
func (s *TaskService) Add(rec *entities.UserRecord, text string, now time.Time) (Result, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return Result{}, entities.ErrEmptyContent
	}

	var due *time.Time
	if body, phrase, ok := dates.ExtractDuePhrase(content); ok {
		if t, err := s.parser.Parse(phrase, now); err == nil {
			due = &t
			content = body
		}
	}
	if content == "" {
		return Result{}, entities.ErrEmptyContent
	}

	task := entities.Task{
		ID:        s.ids.next(now),
		Content:   content,
		Priority:  rec.Settings.PriorityOrDefault(),
		Created:   now,
		DueDate:   due,
		Tags:      []string{},
		Completed: false,
	}

	rec.Tasks = append(rec.Tasks, task)
	rec.Invalidate()

	msg := fmt.Sprintf("✅ Added task: %s", task.Content)
	if due != nil {
		msg += fmt.Sprintf("\n📅 Due: %s", formatDate(*due))
	}
	return Result{Text: msg, Dirty: true}, nil
}

// List renders the filtered, sorted view and remembers its numbering.
func (s *TaskService) List(rec *entities.UserRecord, filter string, now time.Time) (Result, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	keep, err := listFilter(filter, now)
	if err != nil {
		return Result{}, err
	}

	if len(rec.Tasks) == 0 {
		return Result{Text: "📋 Your task list is empty. Add one with /add <content>"}, nil
	}

	view := make([]entities.Task, 0, len(rec.Tasks))
	for i := range rec.Tasks {
		if keep(&rec.Tasks[i]) {
			view = append(view, rec.Tasks[i])
		}
	}
	sortForDisplay(view)

	var b strings.Builder
	b.WriteString(listTitle(filter))
	b.WriteString("\n\n")

	completed, overdue := 0, 0
	for i := range view {
		if view[i].Completed {
			completed++
		}
		if view[i].IsOverdue(now) {
			overdue++
		}
	}
	fmt.Fprintf(&b, "📊 %d tasks", len(view))
	if completed > 0 {
		fmt.Fprintf(&b, ", %d completed", completed)
	}
	if overdue > 0 {
		fmt.Fprintf(&b, ", %d overdue", overdue)
	}
	b.WriteString("\n\n")

	if len(view) == 0 {
		b.WriteString("No tasks match this filter.")
		return Result{Text: b.String()}, nil
	}

	for i := range view {
		b.WriteString(formatTask(i+1, &view[i], now))
	}
	b.WriteString(filterHint)

	rec.IndexMap = entities.BuildDisplayIndex(view, rec.PositionOf)
	return Result{Text: b.String(), Dirty: true}, nil
}

// Done toggles the completed flag.
func (s *TaskService) Done(rec *entities.UserRecord, n int) (Result, error) {
	task, _, err := rec.TaskAt(n)
	if err != nil {
		return Result{}, err
	}

	task.Completed = !task.Completed
	state := "marked as done"
	if !task.Completed {
		state = "marked as not done"
	}
	return Result{Text: fmt.Sprintf("✅ Task %q %s", task.Content, state), Dirty: true}, nil
}

// Delete removes a task.
func (s *TaskService) Delete(rec *entities.UserRecord, n int) (Result, error) {
	_, pos, err := rec.TaskAt(n)
	if err != nil {
		return Result{}, err
	}

	removed := rec.Tasks[pos]
	rec.Tasks = append(rec.Tasks[:pos], rec.Tasks[pos+1:]...)
	rec.Invalidate()

	return Result{
		Text:  fmt.Sprintf("🗑️ Deleted task: %s\nNumbers may have changed, use /list to see the current list", removed.Content),
		Dirty: true,
	}, nil
}

// Edit replaces the task content verbatim.
func (s *TaskService) Edit(rec *entities.UserRecord, n int, text string) (Result, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return Result{}, entities.ErrEmptyContent
	}
	task, _, err := rec.TaskAt(n)
	if err != nil {
		return Result{}, err
	}

	task.Content = content
	return Result{Text: fmt.Sprintf("✏️ Updated task: %s", content), Dirty: true}, nil
}

// SetPriority changes the priority of a task.
func (s *TaskService) SetPriority(rec *entities.UserRecord, n, priority int) (Result, error) {
	if !entities.ValidPriority(priority) {
		return Result{}, entities.ErrInvalidPriority
	}
	task, _, err := rec.TaskAt(n)
	if err != nil {
		return Result{}, err
	}

	task.Priority = priority
	rec.Invalidate()

	return Result{
		Text: fmt.Sprintf("⭐ Priority of %q set to %s\nOrder may have changed, use /list to see the current list",
			task.Content, entities.PriorityLabel(priority)),
		Dirty: true,
	}, nil
}

// SetDue parses text as a date expression and sets it as the due date.
func (s *TaskService) SetDue(rec *entities.UserRecord, n int, text string, now time.Time) (Result, error) {
	task, _, err := rec.TaskAt(n)
	if err != nil {
		return Result{}, err
	}
	due, err := s.parser.Parse(text, now)
	if err != nil {
		return Result{}, err
	}

	task.DueDate = &due
	rec.Invalidate()

	return Result{
		Text: fmt.Sprintf("📅 Due date of %q set to %s\nOrder may have changed, use /list to see the current list",
			task.Content, formatDate(due)),
		Dirty: true,
	}, nil
}

// SetTags replaces the task's tags; text without any tag clears them.
func (s *TaskService) SetTags(rec *entities.UserRecord, n int, text string) (Result, error) {
	task, _, err := rec.TaskAt(n)
	if err != nil {
		return Result{}, err
	}

	task.Tags = entities.SplitTags(text)
	if len(task.Tags) == 0 {
		return Result{Text: fmt.Sprintf("🏷️ Cleared all tags of %q", task.Content), Dirty: true}, nil
	}
	return Result{
		Text:  fmt.Sprintf("🏷️ Tags of %q set to: %s", task.Content, strings.Join(task.Tags, ", ")),
		Dirty: true,
	}, nil
}

// Search lists matching tasks in storage order. Its numbering is not remembered.
func (s *TaskService) Search(rec *entities.UserRecord, query string, now time.Time) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, entities.ErrEmptyContent
	}

	var b strings.Builder
	n := 0
	for i := range rec.Tasks {
		if !rec.Tasks[i].Matches(query) {
			continue
		}
		if n == 0 {
			b.WriteString("🔍 Search results:\n\n")
		}
		n++
		b.WriteString(formatTask(n, &rec.Tasks[i], now))
	}

	if n == 0 {
		return Result{Text: "🔍 No matching tasks"}, nil
	}
	b.WriteString("\nUse /list before addressing tasks by number")
	return Result{Text: b.String()}, nil
}

// Stats counts the collection.
func (s *TaskService) Stats(rec *entities.UserRecord, now time.Time) ports.Stats {
	st := ports.Stats{Total: len(rec.Tasks)}
	for i := range rec.Tasks {
		if rec.Tasks[i].Completed {
			st.Completed++
		}
		if rec.Tasks[i].IsOverdue(now) {
			st.Overdue++
		}
	}
	st.Pending = st.Total - st.Completed
	if st.Total > 0 {
		st.CompletionRate = int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
	}
	return st
}

func (s *TaskService) statsResult(rec *entities.UserRecord, now time.Time) Result {
	st := s.Stats(rec, now)
	return Result{Text: fmt.Sprintf("📊 *Statistics*\n\n"+
		"Total: %d\n"+
		"Completed: %d (%d%%)\n"+
		"Pending: %d\n"+
		"Overdue: %d",
		st.Total, st.Completed, st.CompletionRate, st.Pending, st.Overdue)}
}

// UpdateSettings changes one setting. Without a key it shows the current settings.
func (s *TaskService) UpdateSettings(rec *entities.UserRecord, key, value string) (Result, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return Result{Text: formatSettings(rec.Settings)}, nil
	}

	next := rec.Settings
	switch strings.ToLower(key) {
	case "timezone":
		if value != "" {
			if _, err := time.LoadLocation(value); err != nil {
				return Result{}, fmt.Errorf("%w: unknown timezone %q", entities.ErrInvalidSettingValue, value)
			}
		}
		next.Timezone = value
	case "remindertime":
		next.ReminderTime = value
	case "language":
		next.Language = value
	case "defaultpriority":
		p, err := strconv.Atoi(value)
		if err != nil && value != "" {
			return Result{}, fmt.Errorf("%w: defaultPriority must be a number", entities.ErrInvalidSettingValue)
		}
		next.DefaultPriority = p
	case "defaulttags":
		next.DefaultTags = entities.SplitTags(value)
	case "notificationenabled":
		// only the literal "true" enables
		next.NotificationEnabled = value == "true"
	default:
		return Result{}, fmt.Errorf("%w: %q", entities.ErrUnknownSetting, key)
	}

	if value == "" {
		return Result{}, fmt.Errorf("%w: %s needs a value", entities.ErrInvalidSettingValue, key)
	}
	if err := s.validate.Struct(next); err != nil {
		return Result{}, fmt.Errorf("%w: %s", entities.ErrInvalidSettingValue, err.Error())
	}

	rec.Settings = next
	return Result{Text: fmt.Sprintf("✅ Setting %q updated to %s", key, value), Dirty: true}, nil
}

// Remind schedules a reminder relative to the task's due date.
func (s *TaskService) Remind(rec *entities.UserRecord, n int, text string) (Result, error) {
	task, _, err := rec.TaskAt(n)
	if err != nil {
		return Result{}, err
	}
	if task.DueDate == nil {
		return Result{}, entities.ErrReminderNeedsDueDate
	}
	offset, message, err := dates.ParseOffset(text)
	if err != nil {
		return Result{}, err
	}
	if message == "" {
		message = fmt.Sprintf("Reminder: %s is due soon", task.Content)
	}

	at := task.DueDate.Add(-offset)
	task.Reminder = &entities.Reminder{Time: at, Message: message, Sent: false}

	return Result{
		Text:  fmt.Sprintf("⏰ Reminder set for %q\nWill remind you at %s", task.Content, formatDate(at)),
		Dirty: true,
	}, nil
}

// Clear removes tasks in bulk.
func (s *TaskService) Clear(rec *entities.UserRecord, scope string, now time.Time) (Result, error) {
	var (
		keep func(*entities.Task) bool
		msg  string
	)
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case "":
		return Result{}, entities.ErrClearScopeRequired
	case "all":
		keep = func(*entities.Task) bool { return false }
		msg = "✅ Cleared all tasks and reminders"
	case "completed":
		keep = func(t *entities.Task) bool { return !t.Completed }
		msg = "✅ Cleared completed tasks"
	case "overdue":
		keep = func(t *entities.Task) bool { return !t.IsOverdue(now) }
		msg = "✅ Cleared overdue tasks"
	default:
		return Result{}, fmt.Errorf("%w: %q", entities.ErrClearScopeRequired, scope)
	}

	kept := make([]entities.Task, 0, len(rec.Tasks))
	for i := range rec.Tasks {
		if keep(&rec.Tasks[i]) {
			kept = append(kept, rec.Tasks[i])
		}
	}
	removed := len(rec.Tasks) - len(kept)
	rec.Tasks = kept
	rec.Invalidate()

	return Result{Text: fmt.Sprintf("%s (%d removed)", msg, removed), Dirty: true}, nil
}

// Sort reorders storage. An empty key sorts by priority.
func (s *TaskService) Sort(rec *entities.UserRecord, key string) (Result, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		key = "priority"
	}

	tasks := rec.Tasks
	switch key {
	case "priority":
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Priority < tasks[j].Priority })
	case "due":
		// Pairs where either side lacks a due date compare equal.
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].DueDate != nil && tasks[j].DueDate != nil && tasks[i].DueDate.Before(*tasks[j].DueDate)
		})
	case "created":
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Created.Before(tasks[j].Created) })
	default:
		return Result{}, fmt.Errorf("%w: %q", entities.ErrUnknownSortKey, key)
	}
	rec.Invalidate()

	return Result{Text: fmt.Sprintf("✅ Tasks sorted by %s", key), Dirty: true}, nil
}

// Snapshot copies tasks and settings out of rec.
func (s *TaskService) Snapshot(rec *entities.UserRecord) ports.Snapshot {
	tasks := make([]entities.Task, len(rec.Tasks))
	copy(tasks, rec.Tasks)
	return ports.Snapshot{Tasks: tasks, Settings: rec.Settings}
}

// Export packages the snapshot as a JSON document.
func (s *TaskService) Export(rec *entities.UserRecord, now time.Time) (Result, error) {
	data, err := json.MarshalIndent(s.Snapshot(rec), "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode export: %w", err)
	}

	doc := &ports.Document{
		FileName: ExportFileName(rec.UserID, now),
		Data:     data,
		Caption:  fmt.Sprintf("📦 Export of %d tasks", len(rec.Tasks)),
	}
	return Result{Text: doc.Caption, Document: doc}, nil
}

// ExportFileName embeds the user id and a separator-free UTC timestamp.
func ExportFileName(userID string, now time.Time) string {
	return fmt.Sprintf("CloudTodo_%s_%s.json", userID, now.UTC().Format("20060102T150405"))
}

// Import replaces tasks and settings with a snapshot.
func (s *TaskService) Import(rec *entities.UserRecord, snap ports.Snapshot) error {
	seen := make(map[string]struct{}, len(snap.Tasks))
	for i, t := range snap.Tasks {
		if t.ID == "" || strings.TrimSpace(t.Content) == "" {
			return fmt.Errorf("%w: task %d needs an id and content", entities.ErrInvalidSnapshot, i+1)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate task id %s", entities.ErrInvalidSnapshot, t.ID)
		}
		seen[t.ID] = struct{}{}
		if !entities.ValidPriority(t.Priority) {
			return fmt.Errorf("%w: task %s: %v", entities.ErrInvalidSnapshot, t.ID, entities.ErrInvalidPriority)
		}
	}
	if err := s.validate.Struct(snap.Settings); err != nil {
		return fmt.Errorf("%w: %s", entities.ErrInvalidSnapshot, err.Error())
	}

	tasks := make([]entities.Task, len(snap.Tasks))
	copy(tasks, snap.Tasks)
	rec.Tasks = tasks
	rec.Settings = snap.Settings
	rec.Normalize()
	rec.Invalidate()
	return nil
}

// ExportUser loads a user's snapshot for the admin API.
func (s *TaskService) ExportUser(ctx context.Context, userID string) (ports.Snapshot, error) {
	rec, err := s.repo.Get(ctx, userID)
	if err != nil {
		return ports.Snapshot{}, err
	}
	rec.Normalize()
	return s.Snapshot(rec), nil
}

// ImportUser restores a snapshot into a user's record under the user lock.
func (s *TaskService) ImportUser(ctx context.Context, userID string, snap ports.Snapshot) error {
	unlock := s.Lock(userID)
	defer unlock()

	rec, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Import(rec, snap); err != nil {
		return err
	}
	if err := s.Save(ctx, rec); err != nil {
		return err
	}

	s.logger.Infow("Snapshot imported", "user_id", userID, "tasks", len(rec.Tasks))
	return nil
}

// UserStats computes statistics for the admin API.
func (s *TaskService) UserStats(ctx context.Context, userID string) (ports.Stats, error) {
	rec, err := s.repo.Get(ctx, userID)
	if err != nil {
		return ports.Stats{}, err
	}
	rec.Normalize()
	return s.Stats(rec, s.now()), nil
}

// listFilter returns the predicate for a /list filter token.
func listFilter(filter string, now time.Time) (func(*entities.Task) bool, error) {
	today := dates.StartOfDay(now)
	dueWithin := func(days int) func(*entities.Task) bool {
		end := today.AddDate(0, 0, days)
		return func(t *entities.Task) bool {
			return t.DueDate != nil && !t.DueDate.Before(today) && t.DueDate.Before(end)
		}
	}

	switch {
	case filter == "":
		return func(*entities.Task) bool { return true }, nil
	case filter == "today":
		return dueWithin(1), nil
	case filter == "week":
		return dueWithin(7), nil
	case filter == "overdue":
		return func(t *entities.Task) bool { return t.IsOverdue(now) }, nil
	case filter == "completed":
		return func(t *entities.Task) bool { return t.Completed }, nil
	case filter == "pending":
		return func(t *entities.Task) bool { return !t.Completed }, nil
	case strings.HasPrefix(filter, "tag:") && len(filter) > len("tag:"):
		name := strings.TrimPrefix(filter, "tag:")
		return func(t *entities.Task) bool { return t.MatchesTag(name) }, nil
	}
	return nil, fmt.Errorf("%w: %q", entities.ErrUnknownFilter, filter)
}

// sortForDisplay orders pending before completed, then by priority, due date
// (undated last) and creation time.
func sortForDisplay(tasks []entities.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			if !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
		case a.DueDate != nil:
			return true
		case b.DueDate != nil:
			return false
		}
		return a.Created.Before(b.Created)
	})
}

func ignoreNotFound(err error) error {
	if errors.Is(err, entities.ErrRecordNotFound) {
		return nil
	}
	return err
}

// idGenerator hands out ULIDs that sort by creation time and never repeat
// within the process, even for tasks added in the same millisecond.
type idGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDGenerator() *idGenerator {
	return &idGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *idGenerator) next(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t), g.entropy)
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}
