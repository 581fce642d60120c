// Package pointer implements a whole-program, context-sensitive points-to
// analysis (k-CFA and its object/type/receiver/hybrid variants) over the IR
// shapes defined in package ir. It is flow-insensitive and field-sensitive:
// for every abstract variable and object field it computes an
// over-approximation of the set of heap objects it may refer to, and
// builds a context-sensitive call graph as a by-product.
//
// The analysis never aborts on a normal program. Anything it cannot
// resolve precisely — a dynamic attribute, an unresolved import, a call
// through a non-callable — is recorded by the unknown tracker (unknown.go)
// and modeled conservatively, per spec.md §7.
package pointer
