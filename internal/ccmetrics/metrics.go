// Package ccmetrics is the otel-backed implementation of cc.Metrics: the
// concurrency-control core's only observability surface, counting
// commits, aborts, cascades and lock waits and histogramming per-cell
// ticket-spin iteration counts. No teacher file wires otel metrics
// directly (darleet-GraphDB's go.mod carries the dependency but nothing
// imports it); this package is the home SPEC_FULL.md gives it.
package ccmetrics

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/dbcore/ccstore/cc"
)

// Recorder implements cc.Metrics against an otel Meter.
type Recorder struct {
	commits    metric.Int64Counter
	aborts     metric.Int64Counter
	cascades   metric.Int64Counter
	lockWaits  metric.Int64Counter
	ticketSpin metric.Int64Histogram
}

var _ cc.Metrics = (*Recorder)(nil)

// NewRecorder builds a Recorder against the global otel meter provider,
// named "ccstore". Returns an error only if instrument registration
// fails (e.g. a duplicate name under an exotic provider configuration).
func NewRecorder() (*Recorder, error) {
	meter := otel.Meter("ccstore")

	commits, err := meter.Int64Counter("cc_commits_total",
		metric.WithDescription("committed transactions"))
	if err != nil {
		return nil, errors.Wrap(err, "register cc_commits_total")
	}
	aborts, err := meter.Int64Counter("cc_aborts_total",
		metric.WithDescription("aborted transactions"))
	if err != nil {
		return nil, errors.Wrap(err, "register cc_aborts_total")
	}
	cascades, err := meter.Int64Counter("cc_cascaded_aborts_total",
		metric.WithDescription("transactions cascade-aborted by another transaction's abort"))
	if err != nil {
		return nil, errors.Wrap(err, "register cc_cascaded_aborts_total")
	}
	lockWaits, err := meter.Int64Counter("cc_lock_waits_total",
		metric.WithDescription("SGT commit-barrier spin iterations observed; SS2PL lock waits are not reported"))
	if err != nil {
		return nil, errors.Wrap(err, "register cc_lock_waits_total")
	}
	ticketSpin, err := meter.Int64Histogram("cc_ticket_spin_iterations",
		metric.WithDescription("iterations spent spinning on a cell's ticket before yielding"))
	if err != nil {
		return nil, errors.Wrap(err, "register cc_ticket_spin_iterations")
	}

	return &Recorder{
		commits:    commits,
		aborts:     aborts,
		cascades:   cascades,
		lockWaits:  lockWaits,
		ticketSpin: ticketSpin,
	}, nil
}

func (r *Recorder) Commit()   { r.commits.Add(context.Background(), 1) }
func (r *Recorder) Abort()    { r.aborts.Add(context.Background(), 1) }
func (r *Recorder) LockWait() { r.lockWaits.Add(context.Background(), 1) }

func (r *Recorder) Cascade(n int) {
	if n <= 0 {
		return
	}
	r.cascades.Add(context.Background(), int64(n))
}

func (r *Recorder) TicketSpin(iterations int) {
	r.ticketSpin.Record(context.Background(), int64(iterations))
}
