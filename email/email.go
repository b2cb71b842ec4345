package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sender errors.
var (
	ErrInvalidMessage = errors.New("email: invalid message")
	ErrSendFailed     = errors.New("email: send failed")
	ErrUnknownPolicy  = errors.New("email: unknown failure policy")
)

// Message is a single plain-text mail.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Sender delivers messages. Implementations must report delivery failures.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Policy decides whether a failed send fails the calling operation.
type Policy string

const (
	PolicyStrict     Policy = "strict"
	PolicyBestEffort Policy = "best-effort"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyStrict, PolicyBestEffort:
		return p, nil
	case "":
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Fatal reports whether a send error must abort the operation under p.
func (p Policy) Fatal(err error) bool {
	return err != nil && p != PolicyBestEffort
}

func (m Message) validate() error {
	switch {
	case strings.TrimSpace(m.To) == "":
		return fmt.Errorf("%w: missing recipient", ErrInvalidMessage)
	case strings.TrimSpace(m.From) == "":
		return fmt.Errorf("%w: missing sender", ErrInvalidMessage)
	case strings.ContainsAny(m.To+m.From+m.Subject, "\r\n"):
		return fmt.Errorf("%w: header contains line break", ErrInvalidMessage)
	}
	return nil
}
