// Package wasmhost exposes an adapter's functions and constructors to
// WebAssembly guests.
//
// Values cross the guest boundary as JSON envelopes inside linear
// memory, addressed by a single packed u64 (pointer in the high 32
// bits, length in the low 32). Guests must export an "allocate"
// function so the host can place payloads into guest memory.
//
// Objects never cross the boundary. The host keeps them behind
// session-scoped numeric handles; the guest sees envelopes of kind
// "handle" and passes them back to later calls. Releasing a session
// releases every handle it still holds.
package wasmhost
