// Package httputil provides the JSON plumbing shared by the HTTP API
// handlers.
//
// # Overview
//
//   - [WriteJSON]: Encode a response body with a status code
//   - [WriteError]: Encode a coded error as {"error": {"code", "message"}}
//   - [DecodeJSON]: Decode a bounded request body, rejecting unknown fields
//
// # Errors
//
// [WriteError] derives the status from the error's code (see
// errors.HTTPStatus). Internal errors are logged by the caller and reported
// to clients without their cause:
//
//	if err != nil {
//	    httputil.WriteError(w, err)
//	    return
//	}
//
// # Limits
//
// Request bodies are capped at [MaxBodyBytes]. Larger bodies fail with
// INVALID_INPUT rather than being truncated.
package httputil
