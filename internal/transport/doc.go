// Package transport defines the capability set a wire transport offers to
// the session engine, and the callback sink the engine offers back.
//
// Concrete MQTT, AMQP, or HTTP transports live outside this module. A
// Provider is selected when the engine is constructed and never switched at
// runtime. Loopback is an in-memory transport used by the simulator, the
// scenario harness, and tests; MockTransport is a gomock double for
// interaction tests.
package transport
