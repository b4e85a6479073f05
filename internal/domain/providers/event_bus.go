package providers

import (
	"context"

	"github.com/careatlas/medtravel/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to offer
// events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.OfferEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.OfferEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelOfferUpdates is the channel for all offer updates
	EventChannelOfferUpdates = "offers:updates"

	// EventChannelRequestPrefix is the prefix for request-specific channels
	EventChannelRequestPrefix = "request:"
)

// GetRequestChannel returns the channel name for a specific request
func GetRequestChannel(requestID string) string {
	return EventChannelRequestPrefix + requestID
}
