package notification

import "context"

// Notifier delivers outbound messages to a conversation on the chat
// platform. The session core never blocks on delivery; handlers call the
// notifier after the turn has been processed.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// NoopNotifier discards messages; used when no bot token is configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, string, string) error { return nil }
