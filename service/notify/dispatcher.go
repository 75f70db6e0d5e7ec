package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/brojonat/burnwatch/service/burn"
	"github.com/brojonat/burnwatch/service/metrics"
	"github.com/sourcegraph/conc/pool"
)

// DefaultSinkTimeout bounds each outbound delivery.
const DefaultSinkTimeout = 10 * time.Second

// Reasons an event was not dispatched at all.
var (
	ErrDuplicate = errors.New("signature already dispatched")
	ErrFiltered  = errors.New("event rejected by filter")
	ErrNoSinks   = errors.New("no sinks configured")
)

// Report summarizes one Dispatch call.
type Report struct {
	Signature  string
	Suppressed error
	Delivered  []string
	Failed     map[string]error
}

// Sent reports whether at least one sink accepted the event.
func (r Report) Sent() bool {
	return len(r.Delivered) > 0
}

// Dispatcher fans a burn event out to every sink concurrently.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	dedup   *Deduper
	filter  *Filter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithSinkTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithDeduper suppresses signatures already dispatched inside the deduper window.
func WithDeduper(d *Deduper) Option {
	return func(disp *Dispatcher) { disp.dedup = d }
}

// WithFilter suppresses events the filter does not match.
func WithFilter(f *Filter) Option {
	return func(disp *Dispatcher) { disp.filter = f }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(disp *Dispatcher) { disp.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(disp *Dispatcher) { disp.logger = logger }
}

func NewDispatcher(sinks []Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sinks:   sinks,
		timeout: DefaultSinkTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sinks returns the configured sink names.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Dispatch delivers ev to every sink and waits for all of them. Deliveries
// outlive cancellation of ctx but each is bounded by the sink timeout.
// Failures are logged and reported, never returned. When every sink fails
// the signature is released from the deduper.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *burn.Event) Report {
	report := Report{Signature: ev.Signature}

	if len(d.sinks) == 0 {
		d.logger.DebugContext(ctx, "no sinks configured, skipping notification", "signature", ev.Signature)
		return d.suppress(report, ErrNoSinks, "no_sinks")
	}

	if d.filter != nil {
		ok, err := d.filter.Match(ctx, ev)
		switch {
		case err != nil:
			d.logger.WarnContext(ctx, "notify filter failed, dispatching anyway",
				"signature", ev.Signature,
				"filter", d.filter.String(),
				"error", err,
			)
		case !ok:
			d.logger.DebugContext(ctx, "burn rejected by notify filter", "signature", ev.Signature)
			return d.suppress(report, ErrFiltered, "filtered")
		}
	}

	if d.dedup != nil && d.dedup.Seen(ev.Signature) {
		d.logger.InfoContext(ctx, "duplicate burn suppressed", "signature", ev.Signature)
		return d.suppress(report, ErrDuplicate, "duplicate")
	}

	base := context.WithoutCancel(ctx)
	errs := make([]error, len(d.sinks))

	p := pool.New()
	for i, sink := range d.sinks {
		p.Go(func() {
			sctx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()

			start := time.Now()
			err := send(sctx, sink, ev)
			d.metrics.RecordNotification(sink.Name(), err, time.Since(start).Seconds())
			errs[i] = err
		})
	}
	p.Wait()

	for i, sink := range d.sinks {
		if err := errs[i]; err != nil {
			if report.Failed == nil {
				report.Failed = make(map[string]error)
			}
			report.Failed[sink.Name()] = err
			d.logger.ErrorContext(ctx, "notification failed",
				"sink", sink.Name(),
				"signature", ev.Signature,
				"error", err,
			)
			continue
		}
		report.Delivered = append(report.Delivered, sink.Name())
		d.logger.InfoContext(ctx, "notification sent",
			"sink", sink.Name(),
			"signature", ev.Signature,
		)
	}

	// Nothing went out, so let a redelivery of the batch try again.
	if d.dedup != nil && !report.Sent() {
		d.dedup.Forget(ev.Signature)
		d.logger.WarnContext(ctx, "all sinks failed, signature released for redelivery", "signature", ev.Signature)
	}

	return report
}

func (d *Dispatcher) suppress(report Report, reason error, label string) Report {
	d.metrics.RecordNotificationSuppressed(label)
	report.Suppressed = reason
	return report
}

// send isolates sink panics so one broken sink cannot take down the others.
func send(ctx context.Context, sink Sink, ev *burn.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", sink.Name(), r)
		}
	}()
	return sink.Send(ctx, ev)
}

// Close closes every sink that holds resources.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, s := range d.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
