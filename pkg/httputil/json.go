package httputil

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/matzehuels/pivotframe/pkg/errors"
)

// MaxBodyBytes caps request bodies read by [DecodeJSON].
const MaxBodyBytes = 4 << 20

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and the user message.
type ErrorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// WriteJSON writes v as an indented JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// WriteError writes err as an [ErrorBody]. Errors without a code are
// reported as INTERNAL_ERROR with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" || code == errors.ErrCodeInternal {
		code = errors.ErrCodeInternal
		msg = "internal error"
	}
	WriteJSON(w, errors.HTTPStatus(err), ErrorBody{Error: ErrorDetail{Code: code, Message: msg}})
}

// DecodeJSON decodes the request body into v. The body must be a single
// JSON value no larger than [MaxBodyBytes] with no unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if stderrors.As(err, &tooBig) {
			return errors.New(errors.ErrCodeInvalidInput, "request body too large (max %d bytes)", tooBig.Limit)
		}
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	if dec.More() {
		return errors.New(errors.ErrCodeInvalidInput, "request body has trailing data")
	}
	return nil
}
