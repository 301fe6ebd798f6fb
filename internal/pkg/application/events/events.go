package events

import (
	"context"
)

// Sink receives named events from the application. Delivery is best effort,
// a sink must never block or fail the caller.
//
//go:generate moq -rm -out sink_mock.go . Sink
type Sink interface {
	Publish(ctx context.Context, name string, payload any)
}

type fanout []Sink

// Fanout returns a Sink that publishes every event to each of the given sinks in order.
func Fanout(sinks ...Sink) Sink {
	f := fanout{}
	for _, s := range sinks {
		if s != nil {
			f = append(f, s)
		}
	}
	return f
}

func (f fanout) Publish(ctx context.Context, name string, payload any) {
	for _, s := range f {
		s.Publish(ctx, name, payload)
	}
}

type discard struct{}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

func (discard) Publish(context.Context, string, any) {}
