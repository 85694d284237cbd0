package events

import (
	"context"
	"errors"
)

// ErrPublisherClosed is returned on publish after Close.
var ErrPublisherClosed = errors.New("event publisher closed")

// Fanout delivers every event to all wrapped publishers. Failures are
// collected, not short-circuited, so one slow sink cannot starve another.
type Fanout struct {
	publishers []Publisher
}

// NewFanout composes publishers into one.
func NewFanout(publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers}
}

func (f *Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
