package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// OfferEventType represents the type of offer event
type OfferEventType string

const (
	// OfferEventTypeGenerated is published after the engine persists a
	// batch of offers for a request
	OfferEventTypeGenerated OfferEventType = "offers_generated"

	// OfferEventTypeStatusUpdate is published when a downstream workflow
	// changes an offer's status
	OfferEventTypeStatusUpdate OfferEventType = "offer_status_update"
)

// OfferEvent represents an update to the offer set of a request, used to
// drop cached offer listings so polling clients never see stale data.
type OfferEvent struct {
	ID         string         `json:"id"`
	RequestID  string         `json:"request_id"`
	EventType  OfferEventType `json:"event_type"`
	Timestamp  time.Time      `json:"timestamp"`
	OfferCount int            `json:"offer_count"`
}

// NewOfferEvent creates a new offer event
func NewOfferEvent(requestID string, eventType OfferEventType, offerCount int) *OfferEvent {
	return &OfferEvent{
		ID:         generateEventID(),
		RequestID:  requestID,
		EventType:  eventType,
		Timestamp:  time.Now(),
		OfferCount: offerCount,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
