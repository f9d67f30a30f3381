// Package endpoint implements the per-request execution bridge: the
// logic that turns one HTTP request into one kernel execution and that
// execution's multiplexed message stream into one HTTP response.
//
// The package has three moving parts:
//
//   - [Translator]: pure translation of an HTTP request into executable
//     code, with the serialized request embedded as an in-scope value.
//
//   - [Correlator]: the per-request state machine. It filters a shared
//     kernel stream down to one submission's messages, accumulates
//     stream chunks, the most recent computed result, and any error,
//     and resolves exactly once when the kernel reports idle.
//
//   - [Bridge]: the lifecycle glue. It leases a kernel from the pool,
//     registers a non-blocking listener, submits preamble and request
//     code, awaits resolution under a timeout, and releases the lease
//     on every exit path, so a failed or cancelled request can never
//     leak a kernel.
//
// Terminal results are all-or-nothing: no partial output is written
// before the kernel signals completion. An error reported by the
// kernel wins over any computed result; a computed result wins over
// accumulated stream output.
package endpoint
