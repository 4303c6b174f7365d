// Package callin marshals Go values into the engine's call-in routines.
//
// The generic routine is mexec: an M command plus up to 24 arguments. Each
// argument is classified once, at the boundary, as an integer, float or text
// Value, and packed into the next free slot of its kind:
//
//	d.Exec(ctx, "s l2=l0*l1", 2, 10, callin.Out(0))
//
//	position  0    1    2
//	slot      l0   l1   l2 (output)
//
// Numbering is kind-local, so inside the command the third integer is l2
// whatever the text and float arguments around it. Each kind has eight
// slots; a ninth argument of one kind fails with errors.ErrCapacity.
//
// Arguments wrapped with Out are read back after the call and returned in
// argument order, whatever their kinds. A call with no outputs returns Unit,
// which is distinct from an empty tuple.
//
// Text arguments live in foreign buffers owned by a resource.Guard for the
// duration of the call. They are released on every return path.
//
// The thin routines (MGet, MSet, MOrder, MData, MKill, DDWalk, GLWalk,
// WPWalk, TStart, TCommit, TRollback) use the same session, guard and
// charset with their fixed parameter lists.
package callin
