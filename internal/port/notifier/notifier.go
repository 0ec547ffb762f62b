// Package notifier defines the port for delivering plan summaries to chat tools.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Field is a labelled value rendered next to the message body.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notification is the payload sent through a Notifier.
type Notification struct {
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Level   string  `json:"level"`  // "info", "success", "warning", "error"
	Source  string  `json:"source"` // e.g. "plan.exported"
	Fields  []Field `json:"fields,omitempty"`
}

// Capabilities declares which features a notifier supports.
type Capabilities struct {
	RichFormatting bool `json:"rich_formatting"`
	Fields         bool `json:"fields"`
}

// Notifier is the port interface for sending notifications.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "slack").
	Name() string

	// Capabilities returns what this notifier supports.
	Capabilities() Capabilities

	// Send delivers a notification.
	Send(ctx context.Context, notification Notification) error
}
