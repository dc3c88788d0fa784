package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudtodo/core/internal/adapters/repository"
	"github.com/cloudtodo/core/internal/domain/entities"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeMessenger struct {
	mu        sync.Mutex
	messages  []sentMessage
	documents []ports.Document
	err       error
}

func (m *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, sentMessage{chatID: chatID, text: text})
	return nil
}

func (m *fakeMessenger) SendDocument(ctx context.Context, chatID int64, doc ports.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.documents = append(m.documents, doc)
	return nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	outcomes  []string
	delivered []bool
}

func (r *fakeRecorder) CommandHandled(verb, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, verb+":"+outcome)
}

func (r *fakeRecorder) ReminderDelivered(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, ok)
}

type brokenRepo struct{ *repository.MemoryRepository }

func (brokenRepo) Get(context.Context, string) (*entities.UserRecord, error) {
	return nil, errors.New("connection refused")
}

type botFixture struct {
	bot       *BotService
	tasks     *TaskService
	repo      ports.UserRecordRepository
	messenger *fakeMessenger
	recorder  *fakeRecorder
}

func newBotFixture(t *testing.T, repo ports.UserRecordRepository) *botFixture {
	t.Helper()
	if repo == nil {
		repo = repository.NewMemoryRepository()
	}
	log := logger.NewNop()
	messenger := &fakeMessenger{}
	recorder := &fakeRecorder{}
	tasks := NewTaskService(repo, log, WithClock(fixedClock))
	reminders := NewReminderService(tasks, messenger, recorder, log)
	return &botFixture{
		bot:       NewBotService(tasks, reminders, messenger, recorder, log),
		tasks:     tasks,
		repo:      repo,
		messenger: messenger,
		recorder:  recorder,
	}
}

func (f *botFixture) send(text string) ports.Reply {
	return f.bot.Handle(context.Background(), ports.Message{UserID: "42", ChatID: 42, Text: text})
}

func TestHandleConversation(t *testing.T) {
	f := newBotFixture(t, nil)

	steps := []struct {
		text string
		want string
	}{
		{"/start", "CloudTodo Bot Guide"},
		{"/add Buy milk due tomorrow 18:00", "Added task: Buy milk"},
		{"/add Write report", "Added task: Write report"},
		{"/done 1", invalidNumberText},
		{"/list", "1. ⬜ Buy milk"},
		{"/done 2", "marked as done"},
		{"/prio 1 9", "Usage: /prio"},
		{"/prio 1 1", "Priority of \"Buy milk\""},
		{"/done 1", invalidNumberText},
		{"/clear", "Usage: /clear"},
		{"/sort name", "Usage: /sort"},
		{"/list soon", "Unknown filter"},
		{"/settings colour blue", "Unknown setting"},
		{"/settings timezone Mars/Olympus", "invalid setting value"},
		{"/list", "2. ✅ Write report"},
		{"/remind 2 1 hour before", "no due date"},
		{"/remind 1 1 hour before", "Reminder set for \"Buy milk\""},
		{"/frobnicate", "Unrecognized command"},
		{"   ", "Unrecognized command"},
		{"/stats", "Total: 2"},
	}

	for _, step := range steps {
		reply := f.send(step.text)
		if !strings.Contains(reply.Text, step.want) {
			t.Fatalf("%q replied %q, want it to contain %q", step.text, reply.Text, step.want)
		}
	}
}

func TestHandleExportReturnsDocument(t *testing.T) {
	f := newBotFixture(t, nil)
	f.send("/add Pack bags")

	reply := f.send("/export")
	if reply.Document == nil {
		t.Fatalf("export reply has no document: %+v", reply)
	}
	if reply.Document.FileName != "CloudTodo_42_20240110T080000.json" {
		t.Fatalf("file name = %q", reply.Document.FileName)
	}
	if !strings.Contains(string(reply.Document.Data), "Pack bags") {
		t.Fatal("document does not contain the task")
	}
}

func TestHandleFiresRemindersBeforeAnyCommand(t *testing.T) {
	f := newBotFixture(t, nil)
	ctx := context.Background()

	due := refNow.Add(30 * time.Minute)
	rec := entities.NewUserRecord("42")
	rec.Tasks = []entities.Task{{
		ID: "r1", Content: "Call mom", Priority: 3, DueDate: &due, Tags: []string{},
		Reminder: &entities.Reminder{Time: refNow.Add(-time.Minute), Message: "call now"},
	}}
	if err := f.repo.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}

	reply := f.send("/frobnicate")
	if !strings.Contains(reply.Text, "Unrecognized command") {
		t.Fatalf("reply = %q", reply.Text)
	}
	if len(f.messenger.messages) != 1 || !strings.Contains(f.messenger.messages[0].text, "call now") {
		t.Fatalf("reminder not delivered: %+v", f.messenger.messages)
	}

	stored, err := f.repo.Get(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Tasks[0].Reminder.Sent {
		t.Fatal("fired reminder was not persisted as sent")
	}

	f.send("/help")
	if len(f.messenger.messages) != 1 {
		t.Fatal("reminder fired twice")
	}
}

func TestHandleStoreFailure(t *testing.T) {
	f := newBotFixture(t, brokenRepo{repository.NewMemoryRepository()})

	reply := f.send("/list")
	if reply.Text != internalErrorText {
		t.Fatalf("reply = %q, want internal error text", reply.Text)
	}
	if got := f.recorder.outcomes; len(got) != 1 || got[0] != "list:error" {
		t.Fatalf("outcomes = %v", got)
	}
}

func TestHandleRecordsOutcomes(t *testing.T) {
	f := newBotFixture(t, nil)

	f.send("/add a")
	f.send("/done 5")
	f.send("/prio x")
	f.send("/nope")

	want := []string{"add:ok", "done:rejected", "prio:rejected", ":rejected"}
	got := f.recorder.outcomes
	if len(got) != len(want) {
		t.Fatalf("outcomes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("outcomes = %v, want %v", got, want)
		}
	}
}

func TestHandleAndReply(t *testing.T) {
	f := newBotFixture(t, nil)
	ctx := context.Background()
	msg := func(text string) ports.Message { return ports.Message{UserID: "42", ChatID: 99, Text: text} }

	if err := f.bot.HandleAndReply(ctx, msg("/add Water plants")); err != nil {
		t.Fatal(err)
	}
	if err := f.bot.HandleAndReply(ctx, msg("/export")); err != nil {
		t.Fatal(err)
	}
	if len(f.messenger.messages) != 1 || f.messenger.messages[0].chatID != 99 {
		t.Fatalf("messages = %+v", f.messenger.messages)
	}
	if len(f.messenger.documents) != 1 {
		t.Fatalf("documents = %+v", f.messenger.documents)
	}

	f.messenger.err = errors.New("telegram down")
	if err := f.bot.HandleAndReply(ctx, msg("/help")); err == nil {
		t.Fatal("delivery failure should be returned")
	}
}

func TestHandleSerializesSameUser(t *testing.T) {
	f := newBotFixture(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.send("/add concurrent")
		}()
	}
	wg.Wait()

	rec, err := f.tasks.Load(context.Background(), "42")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Tasks) != 20 {
		t.Fatalf("got %d tasks, want 20", len(rec.Tasks))
	}
}

func TestReplyForError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{entities.ErrInvalidTaskNumber, invalidNumberText},
		{entities.ErrDateNotRecognized, "Could not understand that date"},
		{entities.ErrInvalidReminderOffset, "Invalid reminder time"},
		{entities.ErrEmptyContent, "cannot be empty"},
		{entities.ErrInvalidPriority, "between 1 and 5"},
		{errors.New("disk full"), internalErrorText},
	}

	for _, tt := range tests {
		if got := replyForError(tt.err); !strings.Contains(got, tt.want) {
			t.Fatalf("replyForError(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}
