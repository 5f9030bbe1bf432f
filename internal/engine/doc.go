// Package engine implements the session core of a hub device or module
// client.
//
// An Engine owns three queues and a set of subscription state machines:
//
//   - waitingToSend holds cloned telemetry until the transport takes it.
//     The queue is handed to the transport at registration as its outbox.
//   - pendingTwin holds reported-state records not yet offered to the
//     transport.
//   - awaitingAck holds records the transport accepted, until the hub
//     acknowledges them by item id.
//
// Nothing happens in the background. The caller drives the engine by
// calling DoWork on its own schedule; each tick sweeps expired telemetry,
// drains pendingTwin into the transport, and then lets the transport do
// its own I/O. Every queued item receives exactly one terminal callback:
// a confirmation, an ack status, a timeout, or a destroy notification.
//
// The engine is single-threaded. No method may be called concurrently with
// another, and callbacks fire synchronously on the calling goroutine.
package engine
