// Package harness runs scripted device sessions against the loopback
// transport and records what the application would observe.
//
// A scenario is a YAML file listing engine calls and transport events
// (sends, acks, twin documents, inbound messages, direct methods, clock
// advances). Every user callback the engine fires becomes a trace event,
// and every terminal outcome lands in an in-memory journal. Assertions run
// against both, and the trace can be compared with a golden file.
//
// Runs are deterministic: the clock starts at Start and only moves on
// "advance" steps, and diagnostic ids come from a fixed-seed source.
package harness
