// Package notify describes the short user-facing notifications raised after user actions.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Kind constants recognised by clients rendering a toast.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindInfo    = "info"
)

// DefaultDuration is how long a toast stays visible when no duration is given.
const DefaultDuration = 3 * time.Second

// Toast is a transient notification. A zero Duration means DefaultDuration; a negative one
// means the toast stays until dismissed.
type Toast struct {
	Kind     string        `json:"type"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"-"`
}

// DurationMillis is the visible duration in milliseconds, 0 meaning sticky.
func (t Toast) DurationMillis() int64 {
	switch {
	case t.Duration < 0:
		return 0
	case t.Duration == 0:
		return DefaultDuration.Milliseconds()
	default:
		return t.Duration.Milliseconds()
	}
}

// MarshalJSON renders the toast with its duration in milliseconds.
func (t Toast) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind     string `json:"type"`
		Title    string `json:"title"`
		Message  string `json:"message"`
		Duration int64  `json:"duration"`
	}
	return json.Marshal(wire{Kind: t.Kind, Title: t.Title, Message: t.Message, Duration: t.DurationMillis()})
}

// Success builds a success toast.
func Success(title, message string) Toast {
	return Toast{Kind: KindSuccess, Title: title, Message: message}
}

// Error builds an error toast.
func Error(title, message string) Toast {
	return Toast{Kind: KindError, Title: title, Message: message}
}

// Info builds an informational toast.
func Info(title, message string) Toast {
	return Toast{Kind: KindInfo, Title: title, Message: message}
}

// Sink describes a destination capable of showing toasts.
type Sink interface {
	Show(ctx context.Context, t Toast) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, t Toast) error

// Show implements the Sink interface.
func (f SinkFunc) Show(ctx context.Context, t Toast) error {
	if f == nil {
		return nil
	}
	return f(ctx, t)
}

// WriterSink prints each toast as one line, "[kind] title: message".
func WriterSink(w io.Writer) Sink {
	return SinkFunc(func(_ context.Context, t Toast) error {
		if t.Message == "" {
			_, err := fmt.Fprintf(w, "[%s] %s\n", t.Kind, t.Title)
			return err
		}
		_, err := fmt.Fprintf(w, "[%s] %s: %s\n", t.Kind, t.Title, t.Message)
		return err
	})
}
