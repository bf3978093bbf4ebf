package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as operator-facing messages with a code
//   - Formatted for the client: HTMX fragment, JSON, or plain HTML
//
// Handlers call respondError(w, r, err) and let statusFor pick the code.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/core"
	"github.com/JonMunkholm/auction/internal/ingest"
	"github.com/JonMunkholm/auction/internal/logging"
	"github.com/JonMunkholm/auction/internal/web/templates"
)

// Request-level errors raised by handlers.
var (
	errInvalidBody  = errors.New("invalid request body")
	errInvalidID    = errors.New("invalid id")
	errNoFile       = errors.New("no file provided")
	errNotCSV       = errors.New("not a csv file")
	errFileTooLarge = errors.New("file too large")
	errRateLimited  = errors.New("rate limit exceeded")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor chooses the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrConfirmationRequired),
		errors.Is(err, auction.ErrPlayerAlreadySold),
		errors.Is(err, auction.ErrTeamHasPlayers):
		return http.StatusConflict
	case errors.Is(err, auction.ErrPlayerNotFound),
		errors.Is(err, auction.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNotCSV):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errInvalidBody),
		errors.Is(err, errInvalidID),
		errors.Is(err, errNoFile),
		errors.Is(err, ingest.ErrNoPlayers),
		errors.Is(err, auction.ErrNameRequired),
		errors.Is(err, auction.ErrInvalidPosition),
		errors.Is(err, auction.ErrInvalidGender),
		errors.Is(err, auction.ErrInvalidBudget),
		errors.Is(err, auction.ErrInvalidPrice),
		errors.Is(err, auction.ErrTeamRequired),
		strings.Contains(err.Error(), "invalid year policy"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError handles error responses with operator-facing messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX, JSON, or HTML).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	switch {
	case !core.IsUserFacing(err):
		logger.Error("unexpected request error", attrs...)
	case statusCode == http.StatusInternalServerError:
		logger.Error("request error", attrs...)
	default:
		logger.Warn("request rejected", attrs...)
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, statusCode)
	default:
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML writes a plain HTML error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error partial", "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
