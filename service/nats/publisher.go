package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher publishes burn events to NATS.
type Publisher interface {
	// PublishBurn publishes one burn to "burns.{program_id}".
	PublishBurn(ctx context.Context, msg *BurnMessage) error

	// Close closes the connection to NATS.
	Close() error
}

// JetStreamPublisher publishes burn events to NATS JetStream.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

const (
	// StreamName is the name of the JetStream stream for burns.
	StreamName = "LP_BURNS"

	// SubjectPrefix precedes the program ID in every subject.
	SubjectPrefix = "burns."

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = SubjectPrefix + "*"

	// StreamRetention is how long messages are retained.
	StreamRetention = 7 * 24 * time.Hour
)

// Connect dials NATS with the reconnect policy shared by every component.
func Connect(natsURL, name string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return nc, js, nil
}

// NewPublisher connects to NATS and ensures the stream exists.
func NewPublisher(natsURL string, logger *slog.Logger) (*JetStreamPublisher, error) {
	nc, js, err := Connect(natsURL, "burnwatch-publisher")
	if err != nil {
		return nil, err
	}

	publisher := &JetStreamPublisher{
		nc:     nc,
		js:     js,
		logger: logger,
	}

	if err := publisher.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("NATS publisher initialized",
		"url", natsURL,
		"stream", StreamName,
	)

	return publisher, nil
}

func (p *JetStreamPublisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		info, err := stream.Info(ctx)
		if err == nil {
			p.logger.Debug("JetStream stream already exists",
				"stream", StreamName,
				"messages", info.State.Msgs,
			)
		}
		return nil
	}

	p.logger.Info("creating JetStream stream", "stream", StreamName)

	_, err = p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "LP burn events detected from webhook deliveries",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	p.logger.Info("JetStream stream created", "stream", StreamName)
	return nil
}

// PublishBurn publishes a single burn. The signature doubles as the
// JetStream message ID so redeliveries inside the duplicate window are dropped.
func (p *JetStreamPublisher) PublishBurn(ctx context.Context, msg *BurnMessage) error {
	subject := Subject(msg.ProgramID)

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal burn event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(msg.Signature)); err != nil {
		return fmt.Errorf("failed to publish burn: %w", err)
	}

	p.logger.Debug("published burn event",
		"subject", subject,
		"signature", msg.Signature,
	)
	return nil
}

// Close closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher closed")
	}
	return nil
}
