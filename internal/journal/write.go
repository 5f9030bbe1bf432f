package journal

import (
	"context"
	"fmt"

	"github.com/roach88/hubsession/internal/engine"
)

// RecordTelemetry appends a telemetry confirmation.
func (j *Journal) RecordTelemetry(ctx context.Context, o engine.Outcome) error {
	if o.Kind != engine.OutcomeTelemetry {
		return fmt.Errorf("record telemetry: unexpected outcome kind %q", o.Kind)
	}
	return j.insert(ctx, "record telemetry", o)
}

// RecordReportedState appends a reported-state result.
func (j *Journal) RecordReportedState(ctx context.Context, o engine.Outcome) error {
	if o.Kind != engine.OutcomeReportedState {
		return fmt.Errorf("record reported state: unexpected outcome kind %q", o.Kind)
	}
	return j.insert(ctx, "record reported state", o)
}

func (j *Journal) insert(ctx context.Context, op string, o engine.Outcome) error {
	if o.DeviceID == "" {
		return fmt.Errorf("%s: device id is required", op)
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(kind, device_id, module_id, message_id, item_id, result, status, payload_size, payload_digest, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(o.Kind),
		o.DeviceID,
		o.ModuleID,
		o.MessageID,
		int64(o.ItemID),
		o.Result,
		o.Status,
		len(o.Payload),
		PayloadDigest(o.Payload),
		o.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	j.log.Debug().
		Str("kind", string(o.Kind)).
		Str("device_id", o.DeviceID).
		Str("result", o.Result).
		Msg("outcome recorded")
	return nil
}
