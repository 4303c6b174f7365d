// Package globals navigates M global trees through mexec.
//
//	dic := globals.New(d, "^DIC", "9999940")
//	name, err := dic.Child("0").Value(ctx)
//	keys, err := dic.Keys(ctx)
//
// Serialise and Deserialise move subtrees as (reference, value) pairs,
// which is how fixtures are loaded.
package globals
