// Package registry maps exposed type identifiers to their ownership
// strategy, constructor set, declared base type, and conversion rules.
//
// Registration is a startup-time activity: once Freeze is called the
// registry is immutable and every lookup is lock-free. Re-registering a
// name (or Go type) fails with duplicate_type; re-registering an ordered
// conversion pair fails with duplicate_rule.
//
// # Inheritance
//
// Types declare at most one base. Method lookup walks the base chain
// until a match is found or the chain is exhausted. A value of a derived
// type binds directly to a parameter declared with any of its bases.
//
// # Conversion Rules
//
// Rules are directed single-hop edges keyed by (source, target) TypeID
// pairs. Lookup is exact; LookupAlong additionally walks the source's
// base chain so a rule declared on a base applies to derived instances,
// with a rule on the derived type taking precedence. Rules never chain:
// A -> B plus B -> C does not produce A -> C.
//
// # Constructors
//
// Constructors are factory functions: func(args...) T or
// func(args...) (T, error). Construction matches a registered signature
// exactly (no numeric coercion). When nothing matches and exactly one
// argument was supplied, a conversion rule from the argument's exposed
// type into the constructed type acts as a constructible-from whitelist.
package registry
