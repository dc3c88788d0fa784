package ports

import (
	"context"
	"time"

	"github.com/cloudtodo/core/internal/domain/entities"
)

// Reply is what a handled message produces: a text message or, for export, a document.
type Reply struct {
	Text     string
	Document *Document
}

// Document is a file-like payload delivered instead of a chat message.
type Document struct {
	FileName string
	Data     []byte
	Caption  string
}

// Message is an inbound text message from the messaging client.
type Message struct {
	UserID string
	ChatID int64
	Text   string
}

// Messenger delivers outbound messages to a chat.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, doc Document) error
}

// Recorder receives bot-level measurements.
type Recorder interface {
	CommandHandled(verb, outcome string, duration time.Duration)
	ReminderDelivered(ok bool)
}

// NopRecorder discards all measurements.
type NopRecorder struct{}

func (NopRecorder) CommandHandled(string, string, time.Duration) {}
func (NopRecorder) ReminderDelivered(bool) {}

// Snapshot is the exported form of a user record.
type Snapshot struct {
	Tasks    []entities.Task   `json:"tasks"`
	Settings entities.Settings `json:"settings"`
}

// Stats summarizes a task collection.
type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completion_rate"`
}

// LoginRequest is the admin login payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries an issued admin token
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Claims are the verified contents of an admin token
type Claims struct {
	Subject string
	Role    string
}

// ImportRequest carries a snapshot to restore
type ImportRequest struct {
	Tasks    []entities.Task   `json:"tasks" validate:"dive"`
	Settings entities.Settings `json:"settings"`
}
