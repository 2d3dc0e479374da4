package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"static-gallery/internal/lock"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		switch {
		case errors.Is(err, lock.ErrLocked):
			fmt.Fprintf(os.Stderr, "Error: %v\nWait for the running build to finish or remove the stale lock file.\n", err)
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(os.Stderr, "Build interrupted")
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
