package notify

import (
	"context"

	"github.com/brojonat/burnwatch/service/burn"
	natspkg "github.com/brojonat/burnwatch/service/nats"
)

// NATSSink publishes burn events to JetStream for the SSE stream and any
// other subscribers.
type NATSSink struct {
	publisher natspkg.Publisher
}

func NewNATSSink(publisher natspkg.Publisher) *NATSSink {
	return &NATSSink{publisher: publisher}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Send(ctx context.Context, ev *burn.Event) error {
	return s.publisher.PublishBurn(ctx, natspkg.FromEvent(ev))
}

func (s *NATSSink) Close() error {
	return s.publisher.Close()
}
