package web

// errors.go maps failures to JSON error responses.
//
// Every error is logged with the request id and answered with a user-facing
// message, an action and a code:
//
//	NF001  - the requested team, game or player does not exist (404)
//	REQ001 - malformed path or query parameter (400)
//	REQ002 - rate limit exceeded (429)
//	others - core.MapError codes (500)

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/hoopsdb/internal/core"
	"github.com/JonMunkholm/hoopsdb/internal/logging"
	"github.com/JonMunkholm/hoopsdb/internal/store"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

var (
	errNotFound = core.UserMessage{
		Message: "The requested record does not exist",
		Action:  "Check the id; ids are the ones used in the source CSV files",
		Code:    "NF001",
	}
	errRateLimited = core.UserMessage{
		Message: "Too many requests",
		Action:  "Wait a minute and retry",
		Code:    "REQ002",
	}
)

// badRequest is a client error in a path or query parameter.
type badRequest struct {
	param string
	err   error
}

func (e *badRequest) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.param, e.err)
}

func (e *badRequest) Unwrap() error {
	return e.err
}

// respondError logs err and writes the matching JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := core.MapError(err)

	var br *badRequest
	switch {
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, errNotFound
	case errors.As(err, &br):
		status = http.StatusBadRequest
		msg = core.UserMessage{
			Message: br.Error(),
			Action:  "Fix the request parameter and retry",
			Code:    "REQ001",
		}
	}

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "code", msg.Code, "error", err)
	} else {
		logger.Debug("request rejected", "path", r.URL.Path, "status", status, "code", msg.Code, "error", err)
	}
	respondStatus(w, r, status, msg)
}

// respondStatus writes msg with the given status.
func respondStatus(w http.ResponseWriter, r *http.Request, status int, msg core.UserMessage) {
	writeJSON(w, status, ErrorResponse{
		Error:     msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		RequestID: chimw.GetReqID(r.Context()),
	})
}

// clientIP returns the request's IP without the port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
