// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/jsonresp"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Client-facing messages.
const (
	MsgForbidden          = "You do not have permission to perform this action."
	MsgInvalidCredentials = "Invalid credentials."
	MsgInvalidToken       = "Token is invalid or expired."
	MsgUnauthenticated    = auth.NotAuthenticated
	MsgRateLimited        = "Too many attempts. Please try again later."
	MsgServerError        = "A server error occurred."
	MsgNotFound           = "Not found."
	MsgMethodNotAllowed   = "Method not allowed."
)

// ErrorLogger maps service errors to JSON responses and logs the ones the
// client cannot act on.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// Respond writes the response for err. op names the operation in logs.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := Classify(err)
	if status >= http.StatusInternalServerError {
		e.Log.Error(op,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	}
	jsonresp.Write(w, status, body)
}

// Classify returns the status and body for err.
func Classify(err error) (int, any) {
	if ve, ok := apperr.AsValidation(err); ok {
		return http.StatusBadRequest, map[string]any{"errors": ve.Fields}
	}
	var re *apperr.RequestError
	if stderrors.As(err, &re) {
		return http.StatusBadRequest, errorBody(re.Msg)
	}
	var nf *apperr.NotFoundError
	if stderrors.As(err, &nf) {
		return http.StatusNotFound, errorBody(nf.Error())
	}

	switch {
	case stderrors.Is(err, jsonresp.ErrMalformed):
		return http.StatusBadRequest, errorBody("Malformed JSON body.")
	case stderrors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody(MsgInvalidCredentials)
	case stderrors.Is(err, apperr.ErrInvalidToken):
		return http.StatusUnauthorized, errorBody(MsgInvalidToken)
	case stderrors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody(MsgUnauthenticated)
	case stderrors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, errorBody(MsgForbidden)
	case stderrors.Is(err, apperr.ErrRateLimited):
		return http.StatusTooManyRequests, errorBody(MsgRateLimited)
	}
	return http.StatusInternalServerError, errorBody(MsgServerError)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// NotFound is the router's fallback for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	jsonresp.Error(w, http.StatusNotFound, MsgNotFound)
}

// MethodNotAllowed is the router's fallback for known paths with the
// wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonresp.Error(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}
