package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/pivotframe/internal/cli"
	pferrors "github.com/matzehuels/pivotframe/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.New(os.Stderr, cli.LogInfo).RootCommand()
	root.SilenceErrors = true

	err := root.ExecuteContext(ctx)
	if err == nil {
		return
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", pferrors.UserMessage(err))
	}
	os.Exit(exitCode(err))
}

// exitCode is 130 for an interrupt, 2 for caller mistakes and 1 otherwise.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return 130
	case pferrors.GetCode(err).Client():
		return 2
	default:
		return 1
	}
}
