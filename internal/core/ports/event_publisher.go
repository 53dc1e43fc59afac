package ports

import "context"

// EventPublisher publishes domain events to interested collaborators, such as
// the restaurant notification channel. Publishing is fire-and-forget from the
// consumer's point of view, but failures surface as step failures rather than
// being swallowed: a notification that cannot be published fails the
// publishing step.
type EventPublisher interface {
	Publish(ctx context.Context, eventName string, payload any) error
}
