// Package mbridge calls into an M database engine (GT.M, YottaDB or the
// in-process interpreter) from Go.
//
// # Architecture Overview
//
//	mbridge/            Bridge facade: Open, Exec and the thin routines
//	├── config/         YAML configuration and MBRIDGE_* overrides
//	├── callin/         argument classifier, slot packing and the Driver
//	├── session/        process-wide engine lifecycle and terminal mode
//	├── resource/       per-call text buffer guard
//	├── engine/         call-in ABI: Frame, Buffer, routine signatures, GT.M adapter
//	├── interp/         in-process M engine
//	├── store/          global storage for the in-process engine (memory, SQL)
//	├── mcall/          procedure and function call builders
//	├── globals/        global tree navigation and (de)serialisation
//	├── errors/         structured error types
//	└── cmd/mbridge/    command line tool
//
// # Quick Start
//
//	b, err := mbridge.Open(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	rv, err := b.Exec(ctx, "set s0=s0_\" world\",l0=$length(s0)",
//	    callin.Out("hello"), callin.Out(0))
//	fmt.Println(rv.Text(0), rv.Int(1)) // hello world 11
//
// # mexec
//
// Exec takes up to 24 arguments. Integers, floats and text are packed left
// to right into eight slots of each kind (l0..l7, d0..d7, s0..s7) that the
// command sees as local variables. Arguments wrapped with callin.Out are
// read back after the call and returned in argument order; with none the
// result is callin.Unit.
//
// # Thread Safety
//
// Bridge is safe for concurrent use. Calls into the engine are serialized,
// and the engine is started once, on first use.
package mbridge
