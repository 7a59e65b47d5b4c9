package cc

// Metrics is the instrumentation hook both coordinators report through.
// internal/ccmetrics provides the otel-backed implementation; tests and
// callers that don't care about metrics pass Noop{}.
type Metrics interface {
	Commit()
	Abort()
	Cascade(n int)
	LockWait()
	TicketSpin(iterations int)
}

// Noop discards every observation. Useful as a default so every
// coordinator constructor can take a non-nil Metrics unconditionally.
type Noop struct{}

func (Noop) Commit()             {}
func (Noop) Abort()              {}
func (Noop) Cascade(int)         {}
func (Noop) LockWait()           {}
func (Noop) TicketSpin(int)      {}

var _ Metrics = Noop{}
