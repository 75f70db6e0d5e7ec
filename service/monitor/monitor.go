// Package monitor runs one webhook delivery through the burn pipeline:
// decode, classify, build the burn event, dispatch.
package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/brojonat/burnwatch/service/burn"
	"github.com/brojonat/burnwatch/service/metrics"
	"github.com/brojonat/burnwatch/service/notify"
	"github.com/brojonat/burnwatch/service/solana"
)

// ErrNotArray is returned when the body is not a JSON array.
var ErrNotArray = errors.New("webhook body must be a JSON array")

// Transaction outcomes, also used as metric labels.
const (
	ResultBurn      = "burn"
	ResultSkipped   = "skipped"
	ResultMalformed = "malformed"
)

type Classifier interface {
	Classify(tx *solana.Transaction) (bool, string)
}

type EventBuilder interface {
	Process(ctx context.Context, tx *solana.Transaction) *burn.Event
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev *burn.Event) notify.Report
}

// Summary counts what happened to one delivery.
type Summary struct {
	Received   int `json:"received"`
	Malformed  int `json:"malformed"`
	Classified int `json:"classified"`
	Burns      int `json:"burns"`
	Notified   int `json:"notified"`
}

type Monitor struct {
	classifier Classifier
	builder    EventBuilder
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(classifier Classifier, builder EventBuilder, dispatcher Dispatcher, m *metrics.Metrics, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Monitor{
		classifier: classifier,
		builder:    builder,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
	}
}

// HandleBatch processes a raw webhook body. Transactions are handled in
// order; entries that are not objects or lack a signature are skipped.
// Only a body that is not an array is an error.
func (m *Monitor) HandleBatch(ctx context.Context, raw []byte) (Summary, error) {
	var summary Summary

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return summary, ErrNotArray
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return summary, fmt.Errorf("%w: %v", ErrNotArray, err)
	}

	summary.Received = len(entries)
	m.metrics.RecordWebhookBatch(len(entries))
	m.logger.InfoContext(ctx, "webhook received", "transactions", len(entries))

	for i, entry := range entries {
		tx, err := decodeTransaction(entry)
		if err != nil {
			summary.Malformed++
			m.metrics.RecordTransaction(ResultMalformed)
			m.logger.WarnContext(ctx, "skipping malformed transaction", "index", i, "error", err)
			continue
		}

		summary.Classified++
		isBurn, rule := m.classifier.Classify(tx)
		if !isBurn {
			m.metrics.RecordTransaction(ResultSkipped)
			continue
		}
		summary.Burns++
		m.metrics.RecordTransaction(ResultBurn)
		m.metrics.RecordRuleHit(rule)

		ev := m.builder.Process(ctx, tx)
		ev.Rule = rule

		if report := m.dispatcher.Dispatch(ctx, ev); report.Sent() {
			summary.Notified++
		}
	}

	if summary.Burns > 0 {
		m.logger.InfoContext(ctx, "burn events processed",
			"burns", summary.Burns,
			"notified", summary.Notified,
		)
	}
	return summary, nil
}

func decodeTransaction(entry json.RawMessage) (*solana.Transaction, error) {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("transaction is not an object")
	}
	var tx solana.Transaction
	if err := json.Unmarshal(trimmed, &tx); err != nil {
		return nil, err
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return &tx, nil
}
