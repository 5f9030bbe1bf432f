package engine

import (
	"math"

	"github.com/roach88/hubsession/internal/message"
)

const diagIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const diagIDLength = 8

// shouldSample advances the sampling counter and reports whether the current
// message is sampled. Over any window of 100 messages exactly diagPercent are
// sampled, spread evenly.
func (e *Engine) shouldSample() bool {
	if e.diagPercent == 0 {
		return false
	}
	if e.diagCounter == math.MaxUint32 {
		e.diagCounter %= e.diagPercent * 100
	}
	e.diagCounter++

	n := float64(e.diagCounter)
	p := float64(e.diagPercent)
	return math.Floor((n-2)*p/100) < math.Floor((n-1)*p/100)
}

// addDiagnostic tags msg with a diagnostic id and creation time when the
// current message is sampled.
func (e *Engine) addDiagnostic(msg *message.Message) {
	if !e.shouldSample() {
		return
	}
	id := make([]byte, diagIDLength)
	for i := range id {
		id[i] = diagIDAlphabet[e.rnd.IntN(len(diagIDAlphabet))]
	}
	msg.Diagnostic = &message.Diagnostic{
		ID:           string(id),
		CreationTime: e.clock.Now().UTC(),
	}
}
