package main

import (
	"context"
	"fmt"
	"os"
)

// Signals are handled by the bridge, which stops the engine before exiting.
func main() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
