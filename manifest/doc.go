// Package manifest loads declarative binding descriptions from YAML
// and applies them to a registry and adapter.
//
// A manifest names the exposed types, their ownership strategies and
// base types, the conversion rules between them, and the functions to
// expose. Go-level entities (prototype values, constructors,
// converters, functions) cannot be expressed in YAML, so the manifest
// refers to them by name and Apply resolves the names against an
// Env supplied by the host program.
//
// # Example
//
//	types:
//	  - name: Num
//	    strategy: ref_counted
//	    prototype: num
//	    constructors: [make_num]
//	rules:
//	  - source: Num
//	    target: float64
//	    converter: num_sqrt
//	functions:
//	  - name: print_double
//	    func: print_double
//
// Structural validation runs before anything is registered, so a
// manifest that fails validation leaves the registry untouched.
package manifest
