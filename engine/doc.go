// Package engine defines the call-in ABI of the M database engine.
//
// Every routine the engine exposes has a fixed, positional native signature.
// The package models all of them with one Frame holding three slot arrays of
// capacity Slots plus three return slots:
//
//	Slot        M name      Native type       Count
//	──────────────────────────────────────────────────
//	command     cmd         gtm_char_t*       1 (mexec only)
//	text        s0..s7      gtm_char_t*       8
//	integer     l0..l7      gtm_long_t*       8
//	float       d0..d7      gtm_double_t*     8
//	returns     sRv lRv dRv                   1 each
//
// Signature describes which of those slots each routine actually uses and in
// which direction, and CallTable renders the matching GT.M call-in table.
//
// # Engines
//
//	GTM       cgo adapter over libgtmshr (build tag gtm)
//	interp    in-process engine in package interp
//
// Engines are not safe for concurrent use. The session package serializes
// every Call.
//
// # Buffers
//
// Text slots point at foreign-owned buffers obtained from the engine's
// Allocator. Buffers are NUL-terminated and at most MaxValue bytes; longer
// values are truncated on Set.
package engine
