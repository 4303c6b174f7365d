// Package store keeps M variables for the in-process engine.
//
// Nodes are addressed by a Ref: a name and a list of subscripts. Subscripts
// are encoded with an order-preserving collation (canonic numbers by value,
// then strings bytewise), so $ORDER and subtree kills are range operations
// on encoded keys.
//
// Two implementations exist. MemStore keeps sorted slices in memory and is
// used for locals and for transient globals. SQLStore keeps globals in a
// SQL table through database/sql, with sqlite3 and mysql dialects.
package store
