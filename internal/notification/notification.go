package notification

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	// KindWelcome is sent once after a successful registration.
	KindWelcome = "welcome"
	// KindLogin is sent after every successful login.
	KindLogin = "login"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Subject     string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// Welcome builds the greeting sent to newly registered users.
func Welcome(email, username string) Message {
	return Message{
		Kind:        KindWelcome,
		Destination: email,
		Subject:     "Welcome to our system",
		Body:        fmt.Sprintf("Hello %s,\n\nWelcome to our system! We are happy to have you.\n\nRegards,\nTeam", username),
	}
}

// Login builds the notice sent after a successful login.
func Login(email, username string) Message {
	return Message{
		Kind:        KindLogin,
		Destination: email,
		Subject:     "Logging In",
		Body:        fmt.Sprintf("Hello %s,\n\nYou have successfully logged in.\n\nRegards,\nTeam", username),
	}
}

// LoggerNotifier writes notifications to the logger instead of delivering them.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "subject", message.Subject)
	return nil
}
