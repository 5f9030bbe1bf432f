// Package edge covers the pieces of a module client that only exist when
// running under an edge runtime: bootstrap from the runtime's environment
// variables, the workload API that signs tokens on the module's behalf, and
// synchronous direct method invocation through the edge gateway.
package edge
