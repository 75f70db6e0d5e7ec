package burn

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/brojonat/burnwatch/service/metrics"
	"github.com/brojonat/burnwatch/service/solana"
	"github.com/sourcegraph/conc/pool"
)

const defaultMaxFetches = 8

// TokenResolver returns metadata for a mint. It never fails; unresolvable
// mints come back as placeholders.
type TokenResolver interface {
	Get(ctx context.Context, mint string) solana.TokenInfo
}

// Processor turns classified transactions into Events.
type Processor struct {
	resolver         TokenResolver
	explorerTemplate string
	programID        string
	maxFetches       int
	now              func() time.Time
	metrics          *metrics.Metrics
	logger           *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProgramID stamps events with the monitored program.
func WithProgramID(id string) ProcessorOption {
	return func(p *Processor) { p.programID = id }
}

// WithMaxFetches bounds concurrent metadata lookups per event.
func WithMaxFetches(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.maxFetches = n
		}
	}
}

// WithProcessorMetrics records tokens per event.
func WithProcessorMetrics(m *metrics.Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

// WithProcessorClock sets the clock used for transactions without a block time.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

func NewProcessor(resolver TokenResolver, explorerTemplate string, logger *slog.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Processor{
		resolver:         resolver,
		explorerTemplate: explorerTemplate,
		maxFetches:       defaultMaxFetches,
		now:              time.Now,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process builds the burn event for tx. Metadata for distinct mints is
// resolved concurrently; a failed lookup only affects its own mint.
func (p *Processor) Process(ctx context.Context, tx *solana.Transaction) *Event {
	ts := tx.Time()
	if ts.IsZero() {
		ts = p.now().UTC()
	}

	mints := tx.Meta.Mints()
	infos := make([]solana.TokenInfo, len(mints))

	wp := pool.New().WithMaxGoroutines(p.maxFetches)
	for i, mint := range mints {
		wp.Go(func() {
			infos[i] = p.resolver.Get(ctx, mint)
		})
	}
	wp.Wait()

	tokens := make(map[string]solana.TokenInfo, len(mints))
	for i, mint := range mints {
		tokens[mint] = infos[i]
	}

	ev := &Event{
		Signature:   tx.Signature,
		Timestamp:   ts,
		ProgramID:   p.programID,
		Mints:       mints,
		Tokens:      tokens,
		BurnAmounts: BurnAmounts(tx.Meta),
		ExplorerURL: ExplorerURL(p.explorerTemplate, tx.Signature),
	}
	if ev.Mints == nil {
		ev.Mints = []string{}
	}

	burned := ev.Burned()
	p.metrics.RecordBurnTokens(len(burned))

	p.logger.InfoContext(ctx, "lp burn detected",
		"signature", ev.Signature,
		"time", ev.Timestamp.Format(time.RFC3339),
		"mints", len(ev.Mints),
		"explorer_url", ev.ExplorerURL,
	)
	for _, b := range burned {
		p.logger.InfoContext(ctx, "burned token",
			"signature", ev.Signature,
			"name", b.Token.Name,
			"symbol", b.Token.Symbol,
			"amount", b.Amount.StringFixed(6),
			"mint", b.Token.Mint,
		)
	}

	return ev
}
