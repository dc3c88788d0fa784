package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudtodo/core/internal/domain/entities"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

// ReminderService fires due reminders before a command is handled
type ReminderService struct {
	tasks     *TaskService
	messenger ports.Messenger
	recorder  ports.Recorder
	logger    *logger.Logger
	now       func() time.Time
}

// NewReminderService creates a new reminder service
func NewReminderService(tasks *TaskService, messenger ports.Messenger, recorder ports.Recorder, logger *logger.Logger) *ReminderService {
	if recorder == nil {
		recorder = ports.NopRecorder{}
	}
	return &ReminderService{
		tasks:     tasks,
		messenger: messenger,
		recorder:  recorder,
		logger:    logger.WithComponent("reminder_service"),
		now:       tasks.now,
	}
}

// Scan notifies chatID about every unsent reminder whose time has come and
// marks each one sent, whether or not delivery succeeded. The record is saved
// once when anything changed. It returns the number of reminders fired.
func (s *ReminderService) Scan(ctx context.Context, rec *entities.UserRecord, chatID int64) (int, error) {
	now := s.now().In(rec.Settings.Location())
	fired := 0

	for i := range rec.Tasks {
		task := &rec.Tasks[i]
		if !task.Reminder.IsDue(now) {
			continue
		}

		if rec.Settings.NotificationEnabled {
			err := s.messenger.SendMessage(ctx, chatID, reminderText(task, now))
			s.recorder.ReminderDelivered(err == nil)
			if err != nil {
				s.logger.WithUserID(rec.UserID).Warnw("Reminder delivery failed",
					"task_id", task.ID,
					"error", err.Error(),
				)
			}
		}

		task.Reminder.Sent = true
		fired++
	}

	if fired == 0 {
		return 0, nil
	}
	if err := s.tasks.Save(ctx, rec); err != nil {
		return fired, err
	}
	return fired, nil
}

func reminderText(task *entities.Task, now time.Time) string {
	text := fmt.Sprintf("🔔 *Reminder*\n%s\n\nTask: %s", task.Reminder.Message, task.Content)
	if task.DueDate != nil {
		text += fmt.Sprintf("\nDue: %s", formatDate(task.DueDate.In(now.Location())))
	}
	return text
}
