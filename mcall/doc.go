// Package mcall calls M procedures and functions by name.
//
// Both build a single mexec command that maps each argument to the next
// free slot of its kind:
//
//	Proc(ctx, d, "testproc^vavistagtm", callin.Out(""), callin.Out(0), callin.Out(0.0))
//	// do testproc^vavistagtm(.s0,.l0,.d0)
//
//	Func(ctx, d, "$A", mcall.Ref{Name: "MYVAR"}, 3)
//	// set s0=$A(@s1,l0)
package mcall
