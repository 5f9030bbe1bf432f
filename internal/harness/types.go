package harness

import "github.com/roach88/hubsession/internal/journal"

// Trace event names.
const (
	EventConfirmation     = "confirmation"
	EventReportedState    = "reported_state"
	EventTwin             = "twin"
	EventMessage          = "message"
	EventMethod           = "method"
	EventMethodResponse   = "method_response"
	EventConnectionStatus = "connection_status"
	EventError            = "error"
)

// TraceEvent is one callback observed during a run.
type TraceEvent struct {
	Seq    int64          `json:"seq"`
	Event  string         `json:"event"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held and no step failed
	// unexpectedly.
	Pass   bool         `json:"pass"`
	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
	// Journal counts the recorded outcomes by kind and result.
	Journal []journal.ResultCount `json:"journal,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) record(event string, fields map[string]any) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    int64(len(r.Trace) + 1),
		Event:  event,
		Fields: fields,
	})
}
