package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("unexpected end of record")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", New(ErrCodeInvalidInput, "ticks %d", -1), "INVALID_INPUT: ticks -1"},
		{"wrapped", Wrap(ErrCodeInvalidFormat, cause, "field %d", 7), "INVALID_FORMAT: field 7: unexpected end of record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	sentinel := errors.New("unknown pivot")
	err := Wrap(ErrCodeInvalidReference, fmt.Errorf("%w: 9", sentinel), "shape 2")

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is(err, sentinel) = false")
	}
	if errors.Unwrap(err) == nil {
		t.Error("Unwrap() = nil")
	}
}

func TestCodeLookups(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    Code
		message string
		status  int
	}{
		{"coded", New(ErrCodeInvalidFormat, "bad record"), ErrCodeInvalidFormat, "bad record", http.StatusBadRequest},
		{"reference", New(ErrCodeInvalidReference, "no pivot 3"), ErrCodeInvalidReference, "no pivot 3", http.StatusBadRequest},
		{"not found", Wrap(ErrCodeNotFound, errors.New("x"), "missing"), ErrCodeNotFound, "missing", http.StatusNotFound},
		{"timeout", New(ErrCodeTimeout, "slow"), ErrCodeTimeout, "slow", http.StatusGatewayTimeout},
		{"unsupported", New(ErrCodeUnsupported, "nope"), ErrCodeUnsupported, "nope", http.StatusNotImplemented},
		{"outer code wins", Wrap(ErrCodeNotFound, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeNotFound, "outer", http.StatusNotFound},
		{"coded under fmt wrap", fmt.Errorf("load: %w", New(ErrCodeInvalidName, "bad name")), ErrCodeInvalidName, "bad name", http.StatusBadRequest},
		{"plain", errors.New("disk full"), "", "disk full", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestIsNil(t *testing.T) {
	if Is(nil, ErrCodeInternal) {
		t.Error("Is(nil) = true")
	}
	if GetCode(nil) != "" {
		t.Error("GetCode(nil) != \"\"")
	}
}

func TestCodeClient(t *testing.T) {
	for _, code := range []Code{ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeNotFound} {
		if !code.Client() {
			t.Errorf("%s.Client() = false", code)
		}
	}
	for _, code := range []Code{ErrCodeInternal, ErrCodeTimeout, Code("MADE_UP")} {
		if code.Client() {
			t.Errorf("%s.Client() = true", code)
		}
	}
}
