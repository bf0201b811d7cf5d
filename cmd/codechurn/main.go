// Package main provides the entry point for the codechurn CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sumatoshi-tech/codechurn/cmd/codechurn/commands"
	"github.com/Sumatoshi-tech/codechurn/pkg/version"
)

const (
	exitError   = 1
	exitPartial = 2
)

func main() {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := commands.NewRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if errors.Is(err, commands.ErrPartialFailure) {
			os.Exit(exitPartial)
		}

		os.Exit(exitError)
	}
}
