// Package notify delivers push notifications to registered devices.
package notify

import (
	"context"
	"errors"
)

// Kind is sent in the data payload so the client can route the tap.
type Kind string

const (
	KindMonthlyRecap    Kind = "monthly_recap"
	KindRevisitReminder Kind = "revisit_reminder"
)

// ChannelID is the Android notification channel the app registers.
const ChannelID = "taste_tracker_reminders"

// Push is one message addressed to one device token.
type Push struct {
	Token        string
	Kind         Kind
	Title        string
	Body         string
	HighPriority bool
}

// Dispatcher sends a single push. Implementations must be safe for
// concurrent use.
type Dispatcher interface {
	Dispatch(ctx context.Context, p Push) error
}

var ErrDisabled = errors.New("push notifications are not configured")

// Disabled stands in when no Firebase project is configured. Every dispatch
// fails and is counted as failed.
type Disabled struct{}

func (Disabled) Dispatch(context.Context, Push) error {
	return ErrDisabled
}
