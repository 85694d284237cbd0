package events

import "context"

// Discard is a Publisher that drops every event. The server uses it as the
// relay sink when no broker is configured so the in-process stream is always
// drained and ledger writes never stall on a full buffer.
var Discard Publisher = discardPublisher{}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, Event) error { return nil }

func (discardPublisher) Close() error { return nil }
