package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"remaster/internal/services"
)

const (
	exitOK       = 0
	exitFailures = 1
	exitFatal    = 2
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		if services.IsFatal(err) {
			os.Exit(exitFatal)
		}
		os.Exit(exitFailures)
	}
	os.Exit(exitOK)
}
