// Package events defines the outbound notification contract of the ledger.
//
// Every successful ledger state transition emits exactly one event. The
// orchestrator (out of process or in process) subscribes to these events to
// learn about new purchase requests and to relay oracle decisions back.
// Publishers are swappable: a channel publisher serves in-process consumers
// and tests, a Kafka publisher serves external consumers, and a fanout
// composes them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names an event class. The value appears verbatim on the wire.
type Type string

const (
	// TypePurchaseRequested fires for both plain and confidential intents.
	// Plain intents carry item/price/seller fields; confidential intents
	// carry only the commitment hash.
	TypePurchaseRequested Type = "purchase.requested"

	// TypePurchaseApproved and TypePurchaseRejected fire on oracle
	// fulfillment, never both for the same request.
	TypePurchaseApproved Type = "purchase.approved"
	TypePurchaseRejected Type = "purchase.rejected"

	// TypePurchaseRevealed fires when a confidential intent's plaintext is
	// disclosed and verified against its commitment. This is the only path
	// by which confidential purchase details become observable.
	TypePurchaseRevealed Type = "purchase.revealed"

	// TypeReviewCreated fires when a buyer review is accepted.
	TypeReviewCreated Type = "review.created"

	// TypeOracleRotated fires when the owner swaps the oracle identity.
	TypeOracleRotated Type = "oracle.rotated"
)

// Event is the transport-agnostic notification record.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Type      Type              `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// New constructs an event with a fresh id and the given timestamp.
func New(eventType Type, at time.Time, requestID string, fields map[string]string) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: at,
		RequestID: requestID,
		Fields:    fields,
	}
}

// Publisher delivers events to a sink. Publish must be safe for concurrent
// use; implementations decide their own delivery guarantees.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
