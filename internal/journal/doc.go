// Package journal is a SQLite log of terminal delivery outcomes.
//
// Every telemetry confirmation and every reported-state result the engine
// finalizes can be appended here through engine.OutcomeSink. The journal is
// write-mostly and never replays: queued items live in memory and are not
// restored after a restart.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Payloads are not stored. Each row carries the payload size and a SHA-256
// digest of its canonical form (see PayloadDigest).
package journal
