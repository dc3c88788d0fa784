package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudtodo/core/internal/application/router"
	"github.com/cloudtodo/core/internal/domain/entities"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

const internalErrorText = "❌ Something went wrong while handling your command, please try again later"

// BotService turns inbound messages into replies
type BotService struct {
	tasks     *TaskService
	reminders *ReminderService
	messenger ports.Messenger
	recorder  ports.Recorder
	logger    *logger.Logger
}

// NewBotService creates a new bot service
func NewBotService(tasks *TaskService, reminders *ReminderService, messenger ports.Messenger, recorder ports.Recorder, logger *logger.Logger) *BotService {
	if recorder == nil {
		recorder = ports.NopRecorder{}
	}
	return &BotService{
		tasks:     tasks,
		reminders: reminders,
		messenger: messenger,
		recorder:  recorder,
		logger:    logger.WithComponent("bot_service"),
	}
}

// Handle processes one message and returns the reply. Every failure is
// turned into a reply; Handle never returns an error.
func (s *BotService) Handle(ctx context.Context, msg ports.Message) (reply ports.Reply) {
	start := time.Now()
	log := s.logger.WithUserID(msg.UserID)

	cmd, routeErr := router.Route(msg.Text)
	verb := string(cmd.Verb)
	var cmdErr *router.CommandError
	if errors.As(routeErr, &cmdErr) && cmdErr.Verb != "" {
		verb = string(cmdErr.Verb)
	}

	outcome := outcomeOK
	defer func() {
		if p := recover(); p != nil {
			log.Errorw("Panic while handling command", "verb", verb, "panic", fmt.Sprint(p))
			outcome = outcomeError
			reply = ports.Reply{Text: internalErrorText}
		}
		d := time.Since(start)
		s.recorder.CommandHandled(verb, outcome, d)
		log.LogCommand(msg.UserID, verb, outcome, d)
	}()

	unlock := s.tasks.Lock(msg.UserID)
	defer unlock()

	rec, err := s.tasks.Load(ctx, msg.UserID)
	if err != nil {
		log.WithError(err).Errorw("Failed to load user record")
		outcome = outcomeError
		return ports.Reply{Text: internalErrorText}
	}

	if _, err := s.reminders.Scan(ctx, rec, msg.ChatID); err != nil {
		log.WithError(err).Warnw("Reminder scan failed")
	}

	if routeErr != nil {
		outcome = outcomeRejected
		return ports.Reply{Text: replyForError(routeErr)}
	}

	reply, err = s.tasks.Apply(ctx, rec, cmd)
	if err != nil {
		if isUserError(err) {
			outcome = outcomeRejected
		} else {
			outcome = outcomeError
			log.WithError(err).Errorw("Command failed", "verb", verb)
		}
		return ports.Reply{Text: replyForError(err)}
	}
	return reply
}

// HandleAndReply handles msg and delivers the reply to its chat.
func (s *BotService) HandleAndReply(ctx context.Context, msg ports.Message) error {
	reply := s.Handle(ctx, msg)

	if reply.Document != nil {
		if err := s.messenger.SendDocument(ctx, msg.ChatID, *reply.Document); err != nil {
			return fmt.Errorf("failed to send document: %w", err)
		}
		return nil
	}
	if err := s.messenger.SendMessage(ctx, msg.ChatID, reply.Text); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

var userErrors = []error{
	entities.ErrInvalidTaskNumber,
	entities.ErrEmptyContent,
	entities.ErrDateNotRecognized,
	entities.ErrInvalidReminderOffset,
	entities.ErrReminderNeedsDueDate,
	entities.ErrClearScopeRequired,
	entities.ErrUnknownFilter,
	entities.ErrUnknownSortKey,
	entities.ErrUnknownSetting,
	entities.ErrInvalidSettingValue,
	entities.ErrInvalidPriority,
}

func isUserError(err error) bool {
	var cmdErr *router.CommandError
	if errors.As(err, &cmdErr) {
		return true
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// replyForError maps an error to the message shown to the user.
func replyForError(err error) string {
	var cmdErr *router.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == router.ErrCodeInvalidArgument {
			return fmt.Sprintf("❌ %s\nUsage: %s", cmdErr.Message, cmdErr.Usage())
		}
		return "❓ Unrecognized command, use /help to see what I understand"
	}

	switch {
	case errors.Is(err, entities.ErrInvalidTaskNumber):
		return invalidNumberText
	case errors.Is(err, entities.ErrDateNotRecognized):
		return "❌ Could not understand that date, try e.g. tomorrow 18:00, friday, March 1 or 2024-03-01"
	case errors.Is(err, entities.ErrInvalidReminderOffset):
		return "❌ Invalid reminder time, use e.g. \"30 minutes before\", \"2 hours before\" or \"1 day before\""
	case errors.Is(err, entities.ErrReminderNeedsDueDate):
		return "❌ This task has no due date, set one with /due <number> <date> first"
	case errors.Is(err, entities.ErrEmptyContent):
		return "❌ Task content cannot be empty\nUsage: " + router.Usage(router.VerbAdd)
	case errors.Is(err, entities.ErrClearScopeRequired):
		return "❌ Say what to clear\nUsage: " + router.Usage(router.VerbClear)
	case errors.Is(err, entities.ErrUnknownFilter):
		return "❌ Unknown filter\n" + filterHint
	case errors.Is(err, entities.ErrUnknownSortKey):
		return "❌ Unknown sort key\nUsage: " + router.Usage(router.VerbSort)
	case errors.Is(err, entities.ErrUnknownSetting):
		return "❌ Unknown setting, valid keys are timezone, reminderTime, language, defaultPriority, defaultTags and notificationEnabled"
	case errors.Is(err, entities.ErrInvalidSettingValue):
		return "❌ " + err.Error()
	case errors.Is(err, entities.ErrInvalidPriority):
		return "❌ Priority must be between 1 and 5"
	}
	return internalErrorText
}
