package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestSpinReturnsResult(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		err  error
	}{
		{"ok", nil},
		{"error", boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w bytes.Buffer
			calls := 0
			err := spin(context.Background(), &w, "Working...", func() error {
				calls++
				return tt.err
			})
			if !errors.Is(err, tt.err) || calls != 1 {
				t.Errorf("spin = %v after %d calls, want %v after 1", err, calls, tt.err)
			}
			if w.Len() != 0 {
				t.Errorf("spinner drew %q on a non-terminal", w.String())
			}
		})
	}
}

func TestSpinFailureLine(t *testing.T) {
	var out bytes.Buffer
	c := &CLI{Out: &out}
	err := c.spin(context.Background(), "Rendering...", func() error { return errors.New("nope") })
	if err == nil {
		t.Fatal("spin should return the error")
	}
	if got := out.String(); !strings.Contains(got, iconError+" Rendering failed") {
		t.Errorf("status = %q", got)
	}
}

func TestSpinStopsOnCancel(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "tty")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() {
		done <- spin(ctx, f, "Working...", func() error { return nil })
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("spin = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("spin did not return")
	}
}
