// Package notify delivers alert messages to webhook-style channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Channel represents a notification channel type.
type Channel string

const (
	ChannelWebhook Channel = "webhook"
	ChannelSlack   Channel = "slack"
)

// Message represents a notification message.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	// Fields carries structured data for receivers that want it.
	Fields map[string]any `json:"fields,omitempty"`
}

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Channel() Channel
}

// Dispatcher routes messages to the registered notifiers.
type Dispatcher struct {
	notifiers map[Channel]Notifier
	logger    *slog.Logger
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		notifiers: make(map[Channel]Notifier),
		logger:    logger,
	}
}

// Register adds a notifier, replacing any previous one on its channel.
func (d *Dispatcher) Register(n Notifier) {
	d.notifiers[n.Channel()] = n
}

// Len reports how many channels are registered.
func (d *Dispatcher) Len() int { return len(d.notifiers) }

// Dispatch sends msg to the given channels and joins any failures.
func (d *Dispatcher) Dispatch(ctx context.Context, channels []Channel, msg Message) error {
	var errs []error
	for _, ch := range channels {
		notifier, ok := d.notifiers[ch]
		if !ok {
			d.logger.Warn("notifier not registered", "channel", ch)
			continue
		}
		if err := notifier.Send(ctx, msg); err != nil {
			d.logger.Error("notification failed", "channel", ch, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
			continue
		}
		d.logger.Info("notification sent", "channel", ch, "title", msg.Title)
	}
	return errors.Join(errs...)
}

// SendAll sends msg to every registered channel in name order.
func (d *Dispatcher) SendAll(ctx context.Context, msg Message) error {
	channels := make([]Channel, 0, len(d.notifiers))
	for ch := range d.notifiers {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return d.Dispatch(ctx, channels, msg)
}
