// Package interp is an in-process M engine. It implements engine.Engine
// over package store so the bridge runs without a GT.M installation.
//
// The language subset covers SET, KILL, NEW, IF, ELSE, QUIT, DO, XECUTE,
// WRITE, FOR and the transaction commands, with abbreviations and
// postconditionals. Expressions evaluate strictly left to right with
// 18-digit decimal arithmetic:
//
//	s x=1+2*3        ; x is 9
//	s y=.1+.2        ; y is .3
//	s z=$p("a^b^c","^",2)
//
// During mexec the locals s0..s7, l0..l7 and d0..d7 are bound to the call
// frame. Routine source can be loaded with LoadRoutine or LoadDir, and Go
// functions registered with Register are callable as DO or $$.
//
// Errors surface as a nonzero status and a ZStatus message of the form
// "%MB-E-UNDEF, Undefined local variable: x".
package interp
