// Package bindkit provides a registry and call-binding layer for exposing
// Go objects to an embedding host environment under explicit ownership
// disciplines.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	bindkit/          Root package with the TypeID, Strategy and AccessMode kernel types
//	├── registry/     Exposed-type registry, constructors, conversion rules
//	├── ownership/    Arena-backed handles: raw, reference-counted, externally shared
//	├── call/         Call adapter: argument binding, invocation, return wrapping
//	├── hooks/        Lifecycle observers for diagnostics and testing
//	├── manifest/     Declarative YAML binding manifests
//	├── wasmhost/     wazero host-module adapter for WASM guests
//	└── errors/       Structured error types for debugging
//
// # Ownership Strategies
//
// Every exposed type declares exactly one lifetime discipline:
//
//	RawOwned       - the caller owns the object; the arena never destroys it
//	RefCounted     - an intrusive count in the arena slot; destruction at zero
//	SharedExternal - lifetime governed by a share group outside the object
//
// Handle construction and destruction drive the count for RefCounted
// slots. Object copies are always independent: the copy starts a fresh
// count of one and never aliases the original's count. SharedExternal
// objects may derive new shares from within themselves through a weak
// back-reference without creating a second share group.
//
// # Quick Start
//
// Register a type, a conversion, and call through the adapter:
//
//	reg := registry.New()
//	num, _ := registry.RegisterType[*Num](reg, "Num", bindkit.RefCounted,
//	    registry.WithConstructor(func(v int64) *Num { return &Num{value: v} }),
//	)
//	reg.Rules().Register(num.ID, bindkit.TypeFloat64, func(v any) (any, error) {
//	    return math.Sqrt(float64(v.(*Num).value)), nil
//	})
//	reg.Freeze()
//
//	ad := call.NewAdapter(reg)
//	ad.RegisterFunc("print-double", func(d float64) { fmt.Println(d) })
//	obj, _ := ad.Construct("Num", int64(9))
//	ad.Invoke("print-double", obj) // prints 3
//
// # Conversion Rules
//
// Rules are directed, single-hop edges between exposed types. Registering
// A -> B says nothing about B -> A, and A -> B plus B -> C never implies
// A -> C. Rule lookup during binding walks the value's base chain, so a
// rule declared on a base type applies to derived instances while a rule
// declared on the derived type takes precedence.
//
// # Thread Safety
//
// Registration happens once during process initialization; Freeze marks
// the registry immutable and lookups take no locks afterwards. Reference
// counts are plain non-atomic integers: a handle must not be shared
// between goroutines without external synchronization.
package bindkit
