package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spin runs fn while a spinner labelled message turns on w. The spinner
// only draws when w is a terminal, and its line is cleared before spin
// returns. fn's error is returned unchanged.
func spin(ctx context.Context, w io.Writer, message string, fn func() error) error {
	if !isTerminal(w) {
		return fn()
	}

	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				frame := styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)])
				fmt.Fprintf(w, "\r%s %s", frame, StyleDim.Render(message))
			}
		}
	}()

	err := fn()
	close(stop)
	<-finished
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", lipgloss.Width(message)+2))
	return err
}

// spin runs fn behind a spinner on stderr and reports a failure line when
// fn fails.
func (c *CLI) spin(ctx context.Context, message string, fn func() error) error {
	err := spin(ctx, os.Stderr, message, fn)
	if err != nil {
		c.ui().failure("%s failed", strings.TrimSuffix(message, "..."))
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
