package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted device session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// ConnectionString defaults to DefaultConnectionString.
	ConnectionString string `yaml:"connection_string,omitempty"`

	// Steps run in order. The engine is destroyed after the last one.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the journal.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one engine call or transport event. Which fields apply depends
// on Op.
type Step struct {
	Op string `yaml:"op"`

	// ID is the message id for send_event and deliver_* steps and the label
	// reported with send_reported_state callbacks.
	ID      string `yaml:"id,omitempty"`
	Body    string `yaml:"body,omitempty"`
	Output  string `yaml:"output,omitempty"`
	Input   string `yaml:"input,omitempty"`
	Payload string `yaml:"payload,omitempty"`

	Duration  time.Duration `yaml:"duration,omitempty"`
	Connected bool          `yaml:"connected,omitempty"`
	Hold      bool          `yaml:"hold,omitempty"`

	// Result names a confirmation result (complete_sends).
	Result string `yaml:"result,omitempty"`
	// Results names ProcessItem results (process_results).
	Results []string `yaml:"results,omitempty"`
	// State names a twin update state (deliver_twin).
	State string `yaml:"state,omitempty"`

	Item   uint32 `yaml:"item,omitempty"`
	Status int    `yaml:"status,omitempty"`

	Disposition string `yaml:"disposition,omitempty"`
	Method      string `yaml:"method,omitempty"`
	Response    string `yaml:"response,omitempty"`

	// Name and Value are the set_option arguments.
	Name  string `yaml:"name,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// ExpectError is the engine error code the step must fail with, e.g.
	// INVALID_ARG. Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpSendEvent          = "send_event"
	OpSendReportedState  = "send_reported_state"
	OpDoWork             = "do_work"
	OpAdvance            = "advance"
	OpSetConnected       = "set_connected"
	OpHoldSends          = "hold_sends"
	OpCompleteSends      = "complete_sends"
	OpAck                = "ack"
	OpProcessResults     = "process_results"
	OpSetTwinCallback    = "set_twin_callback"
	OpClearTwinCallback  = "clear_twin_callback"
	OpGetTwin            = "get_twin"
	OpCompleteGetTwin    = "complete_get_twin"
	OpDeliverTwin        = "deliver_twin"
	OpSetMessageCallback = "set_message_callback"
	OpDeliverMessage     = "deliver_message"
	OpSetInputCallback   = "set_input_callback"
	OpDeliverInput       = "deliver_input"
	OpSetMethodCallback  = "set_method_callback"
	OpSetCommandCallback = "set_command_callback"
	OpInvoke             = "invoke"
	OpSetOption          = "set_option"
	OpDestroy            = "destroy"
)

var knownOps = map[string]bool{
	OpSendEvent: true, OpSendReportedState: true, OpDoWork: true, OpAdvance: true,
	OpSetConnected: true, OpHoldSends: true, OpCompleteSends: true, OpAck: true,
	OpProcessResults: true, OpSetTwinCallback: true, OpClearTwinCallback: true,
	OpGetTwin: true, OpCompleteGetTwin: true, OpDeliverTwin: true,
	OpSetMessageCallback: true, OpDeliverMessage: true, OpSetInputCallback: true,
	OpDeliverInput: true, OpSetMethodCallback: true, OpSetCommandCallback: true,
	OpInvoke: true, OpSetOption: true, OpDestroy: true,
}

// Match selects trace events by name and a subset of their fields.
type Match struct {
	Event  string         `yaml:"event"`
	Fields map[string]any `yaml:"fields,omitempty"`
}

// Assertion validates the trace or the journal.
type Assertion struct {
	// Type is one of trace_contains, trace_count, trace_order,
	// journal_count.
	Type string `yaml:"type"`

	// Event and Fields select trace events (trace_contains, trace_count).
	Event  string         `yaml:"event,omitempty"`
	Fields map[string]any `yaml:"fields,omitempty"`

	// Sequence lists matches that must appear in order (trace_order).
	Sequence []Match `yaml:"sequence,omitempty"`

	// Kind and Result select journal rows (journal_count).
	Kind   string `yaml:"kind,omitempty"`
	Result string `yaml:"result,omitempty"`

	// Count is the expected number of matches (trace_count, journal_count).
	Count int `yaml:"count"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
	AssertJournalCount  = "journal_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if !knownOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Op == OpAdvance && step.Duration <= 0 {
			return fmt.Errorf("steps[%d]: advance needs a positive duration", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Sequence) == 0 {
			return fmt.Errorf("assertions[%d]: sequence is required for trace_order", index)
		}
	case AssertJournalCount:
		if a.Kind == "" || a.Result == "" {
			return fmt.Errorf("assertions[%d]: kind and result are required for journal_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
