package engine

import "math"

// nextItemID returns the id for a new reported-state record. Ids start at 2,
// never take the value 0, and wrap back to 1 before reaching MaxUint32.
func (e *Engine) nextItemID() uint32 {
	if e.itemCounter+1 >= math.MaxUint32 {
		e.itemCounter = 1
	} else {
		e.itemCounter++
	}
	return e.itemCounter
}
