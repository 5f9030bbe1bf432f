package engine

import (
	"github.com/roach88/hubsession/internal/transport"
)

// SetTwinCallback subscribes to twin updates and registers fn for them. A nil
// fn unsubscribes.
func (e *Engine) SetTwinCallback(fn transport.TwinFunc) error {
	const op = "SetTwinCallback"
	if err := e.checkAlive(op); err != nil {
		return err
	}

	if fn == nil {
		e.transport.UnsubscribeTwin(e.device)
		e.twin = nil
		return nil
	}

	if err := e.transport.SubscribeTwin(e.device); err != nil {
		e.log.Error().Err(err).Msg("failed to subscribe to twin updates")
		return transportFailure(op, err)
	}
	e.twin = fn
	return nil
}

// SendReportedState queues a reported-properties update. payload is copied.
// cb, if non-nil, receives the hub's status code, or 0 when the engine is
// destroyed before the ack arrives.
func (e *Engine) SendReportedState(payload []byte, cb transport.ReportedStateFunc) error {
	const op = "SendReportedState"
	if err := e.checkAlive(op); err != nil {
		return err
	}
	if len(payload) == 0 {
		e.log.Error().Msg("SendReportedState called with an empty payload")
		return invalidArg(op, "payload is empty")
	}

	rec := &transport.TwinRecord{
		ID:      e.nextItemID(),
		Payload: append([]byte(nil), payload...),
		Done:    cb,
	}

	if err := e.transport.SubscribeTwin(e.device); err != nil {
		e.log.Error().Err(err).Uint32("item_id", rec.ID).Msg("failed to subscribe to twin for reported state")
		return transportFailure(op, err)
	}

	e.pendingTwin.PushBack(rec)
	return nil
}

// GetTwin requests the full twin document. fn fires at most once.
func (e *Engine) GetTwin(fn transport.TwinFunc) error {
	const op = "GetTwin"
	if err := e.checkAlive(op); err != nil {
		return err
	}
	if fn == nil {
		return invalidArg(op, "callback is nil")
	}

	if err := e.transport.SubscribeTwin(e.device); err != nil {
		e.log.Error().Err(err).Msg("failed to subscribe to twin for get")
		return transportFailure(op, err)
	}

	fired := false
	once := func(state transport.TwinUpdateState, payload []byte) {
		if fired {
			return
		}
		fired = true
		fn(state, payload)
	}
	if err := e.transport.GetTwinAsync(e.device, once); err != nil {
		e.log.Error().Err(err).Msg("transport rejected get twin")
		return transportFailure(op, err)
	}
	e.completeTwinSeen = true
	return nil
}

// drainTwin offers pendingTwin to the transport head first. Accepted records
// move to awaitingAck; rejected ones are dropped; a transport that is busy or
// offline stops the drain until the next tick.
func (e *Engine) drainTwin() {
	for {
		rec, ok := e.pendingTwin.Front()
		if !ok {
			return
		}

		switch res := e.transport.ProcessItem(rec); res {
		case transport.ProcessContinue, transport.ProcessNotConnected:
			return
		case transport.ProcessOK:
			e.pendingTwin.PopFront()
			e.awaitingAck.PushBack(rec)
		default:
			e.pendingTwin.PopFront()
			e.log.Error().Uint32("item_id", rec.ID).Stringer("result", res).Msg("transport rejected reported state, dropping")
			e.recordOutcome(Outcome{
				Kind:    OutcomeReportedState,
				ItemID:  rec.ID,
				Result:  ReportedDropped,
				Payload: rec.Payload,
			})
		}
	}
}

// reportedStateComplete resolves the first awaiting record with itemID.
// Unknown ids are ignored.
func (e *Engine) reportedStateComplete(itemID uint32, status int) {
	rec, ok := e.awaitingAck.RemoveFirst(func(r *transport.TwinRecord) bool {
		return r.ID == itemID
	})
	if !ok {
		e.log.Debug().Uint32("item_id", itemID).Msg("ack for unknown reported state item")
		return
	}
	e.finishReported(rec, status, ReportedAcked)
}

func (e *Engine) finishReported(rec *transport.TwinRecord, status int, result string) {
	if rec.Done != nil {
		rec.Done(status)
	}
	e.recordOutcome(Outcome{
		Kind:    OutcomeReportedState,
		ItemID:  rec.ID,
		Result:  result,
		Status:  status,
		Payload: rec.Payload,
	})
}

// retrievePropertyComplete forwards twin traffic to the registered callback
// once a complete document has been seen. Partial updates that arrive
// earlier are discarded.
func (e *Engine) retrievePropertyComplete(state transport.TwinUpdateState, payload []byte) {
	if e.twin == nil {
		return
	}
	if state == transport.TwinComplete {
		e.completeTwinSeen = true
	}
	if e.completeTwinSeen {
		e.twin(state, payload)
	}
}
