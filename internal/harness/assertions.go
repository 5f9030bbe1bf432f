package harness

import (
	"fmt"
	"sort"
	"strings"
)

// AssertionError describes a failed assertion with the full trace for
// context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Event, formatFields(event.Fields))
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertJournalCount:
			err = assertJournalCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if matches(event, a.Event, a.Fields) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s %s", a.Event, formatFields(a.Fields)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, a.Event, a.Fields) {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d x %s %s", a.Count, a.Event, formatFields(a.Fields)),
		Actual:   fmt.Sprintf("%d occurrences", count),
		Trace:    trace,
	}
}

// assertTraceOrder requires the sequence to appear in order. Other events
// may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next == len(a.Sequence) {
			break
		}
		m := a.Sequence[next]
		if matches(event, m.Event, m.Fields) {
			next++
		}
	}
	if next == len(a.Sequence) {
		return nil
	}
	missing := a.Sequence[next]
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("%d events in order", len(a.Sequence)),
		Actual:   fmt.Sprintf("no %s %s after step %d of the sequence", missing.Event, formatFields(missing.Fields), next),
		Trace:    trace,
	}
}

func assertJournalCount(result *Result, a Assertion) error {
	var count int64
	for _, c := range result.Journal {
		if string(c.Kind) == a.Kind && c.Result == a.Result {
			count = c.Count
		}
	}
	if count == int64(a.Count) {
		return nil
	}
	return &AssertionError{
		Type:     AssertJournalCount,
		Expected: fmt.Sprintf("%d %s outcomes with result %s", a.Count, a.Kind, a.Result),
		Actual:   fmt.Sprintf("%d", count),
	}
}

// matches reports whether event has the given name and every expected
// field. Values compare by their printed form, so YAML integers match the
// ints recorded in the trace.
func matches(event TraceEvent, name string, fields map[string]any) bool {
	if event.Event != name {
		return false
	}
	for k, want := range fields {
		got, ok := event.Fields[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, fields[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
