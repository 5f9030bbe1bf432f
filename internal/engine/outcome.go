package engine

import (
	"context"
	"time"
)

// OutcomeKind tells telemetry outcomes apart from reported-state outcomes.
type OutcomeKind string

const (
	OutcomeTelemetry     OutcomeKind = "telemetry"
	OutcomeReportedState OutcomeKind = "reported_state"
)

// Reported-state results.
const (
	ReportedAcked     = "ACKED"
	ReportedDestroyed = "DESTROYED"
	ReportedDropped   = "DROPPED"
)

// Outcome is the terminal result of one queued item.
type Outcome struct {
	Kind     OutcomeKind
	DeviceID string
	ModuleID string

	// MessageID is set for telemetry, ItemID for reported state.
	MessageID string
	ItemID    uint32

	// Result is the confirmation result name for telemetry and one of the
	// Reported* constants for reported state.
	Result string
	// Status is the hub status code of an acked reported-state update.
	Status int

	Payload []byte
	At      time.Time
}

// OutcomeSink receives every terminal outcome after the user callback ran.
// Errors are logged and never reach the caller.
type OutcomeSink interface {
	RecordTelemetry(ctx context.Context, o Outcome) error
	RecordReportedState(ctx context.Context, o Outcome) error
}

func (e *Engine) recordOutcome(o Outcome) {
	o.DeviceID = e.deviceID
	o.ModuleID = e.moduleID
	o.At = e.clock.Now()

	switch o.Kind {
	case OutcomeTelemetry:
		e.metrics.Confirmation(o.Result)
	case OutcomeReportedState:
		e.metrics.Reported(o.Result)
	}

	if e.outcomes == nil {
		return
	}

	var err error
	ctx := context.Background()
	if o.Kind == OutcomeTelemetry {
		err = e.outcomes.RecordTelemetry(ctx, o)
	} else {
		err = e.outcomes.RecordReportedState(ctx, o)
	}
	if err != nil {
		e.log.Warn().Err(err).Str("kind", string(o.Kind)).Msg("failed to record outcome")
	}
}
