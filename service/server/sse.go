package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/burnwatch/service/metrics"
	natspkg "github.com/brojonat/burnwatch/service/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// BurnStream relays burn events from JetStream to Server-Sent Events clients.
type BurnStream struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// NewBurnStream creates a stream that subscribes to NATS internally.
func NewBurnStream(natsURL string, logger *slog.Logger) (*BurnStream, error) {
	nc, js, err := natspkg.Connect(natsURL, "burnwatch-sse")
	if err != nil {
		return nil, err
	}

	logger.Info("SSE stream initialized", "nats_url", natsURL)

	return &BurnStream{
		nc:     nc,
		js:     js,
		logger: logger,
	}, nil
}

// Close closes the NATS connection.
func (p *BurnStream) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("SSE stream closed")
	}
	return nil
}

// handleStreamBurns streams burn events as they are published.
// GET /api/v1/stream/burns?program={program_id}
// Without a program every monitored program is streamed.
func handleStreamBurns(stream *BurnStream, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		program := r.URL.Query().Get("program")

		subject := natspkg.StreamSubjects
		programDesc := "all programs"
		if program != "" {
			subject = natspkg.Subject(program)
			programDesc = program
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flush := func() {
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
		flush()

		logger.DebugContext(r.Context(), "SSE client connected",
			"program", programDesc,
			"remote_addr", r.RemoteAddr,
		)

		// Ephemeral consumer, removed by the server once the connection is gone
		cons, err := stream.js.CreateOrUpdateConsumer(r.Context(), natspkg.StreamName, jetstream.ConsumerConfig{
			FilterSubject:     subject,
			AckPolicy:         jetstream.AckExplicitPolicy,
			DeliverPolicy:     jetstream.DeliverNewPolicy,
			InactiveThreshold: time.Minute,
		})
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to create consumer",
				"program", programDesc,
				"error", err,
			)
			fmt.Fprintf(w, "event: error\ndata: {\"error\": \"failed to subscribe\"}\n\n")
			return
		}

		m.RecordSSEConnectionChange(1)
		defer m.RecordSSEConnectionChange(-1)

		msgChan := make(chan jetstream.Msg, 10)
		doneChan := make(chan struct{})

		go func() {
			defer close(doneChan)
			cc, err := cons.Consume(func(msg jetstream.Msg) {
				select {
				case msgChan <- msg:
				case <-r.Context().Done():
				}
			})
			if err != nil {
				logger.ErrorContext(r.Context(), "failed to start consuming messages", "error", err)
				return
			}
			<-r.Context().Done()
			cc.Stop()
		}()

		hello, _ := json.Marshal(map[string]string{"program": programDesc})
		fmt.Fprintf(w, "event: connected\ndata: %s\n\n", hello)
		flush()

		keepalive := time.NewTicker(10 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case <-keepalive.C:
				fmt.Fprintf(w, ": keepalive\n\n")
				flush()

			case msg := <-msgChan:
				var event natspkg.BurnMessage
				if err := json.Unmarshal(msg.Data(), &event); err != nil {
					logger.WarnContext(r.Context(), "failed to unmarshal burn event", "error", err)
					msg.Ack()
					continue
				}

				fmt.Fprintf(w, "event: burn\ndata: %s\n\n", msg.Data())
				flush()
				msg.Ack()
				m.RecordSSEEventSent()

				logger.DebugContext(r.Context(), "sent burn event",
					"program", programDesc,
					"signature", event.Signature,
				)

			case <-r.Context().Done():
				logger.DebugContext(r.Context(), "SSE client disconnected",
					"program", programDesc,
					"remote_addr", r.RemoteAddr,
				)
				return

			case <-doneChan:
				return
			}
		}
	})
}
