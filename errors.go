package fastigo

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a structured error the dispatcher knows how to render. Handlers
// and hooks may return one (or wrap one with %w) to control the response
// status; anything else that reaches the dispatcher unhandled is passed
// back to the hosting layer untouched.
type Error struct {
	Status  int    // HTTP status used when the error reaches the default handler
	Code    string // short type name, rendered as "<Code>: <message>"
	Message string
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Message
}

// WithMessage returns a copy of the error with a custom message.
func (e Error) WithMessage(message string) Error {
	e.Message = message
	return e
}

// String renders the error the way the default handler serializes it.
func (e Error) String() string {
	return e.Code + ": " + e.Message
}

// Predefined request-time errors.
var (
	ErrReplyAlreadySent  = Error{Status: http.StatusInternalServerError, Code: "ReplyError", Message: "reply already sent"}
	ErrInvalidStatusCode = Error{Status: http.StatusInternalServerError, Code: "ReplyError", Message: "status code out of range"}
	ErrFileNotFound      = Error{Status: http.StatusNotFound, Code: "FileError", Message: "file not found"}
	ErrBodyNotLoaded     = Error{Status: http.StatusInternalServerError, Code: "RequestError", Message: "body not loaded"}

	ErrBadRequest          = Error{Status: http.StatusBadRequest, Code: "BadRequest", Message: http.StatusText(http.StatusBadRequest)}
	ErrUnauthorized        = Error{Status: http.StatusUnauthorized, Code: "Unauthorized", Message: http.StatusText(http.StatusUnauthorized)}
	ErrForbidden           = Error{Status: http.StatusForbidden, Code: "Forbidden", Message: http.StatusText(http.StatusForbidden)}
	ErrNotFound            = Error{Status: http.StatusNotFound, Code: "NotFound", Message: http.StatusText(http.StatusNotFound)}
	ErrInternalServerError = Error{Status: http.StatusInternalServerError, Code: "InternalServerError", Message: http.StatusText(http.StatusInternalServerError)}
)

// Registration errors. These are returned while the application is being
// assembled and never reach a response.
var (
	ErrInvalidPath      = errors.New("invalid route path")
	ErrDuplicateRoute   = errors.New("route already registered")
	ErrUnknownMethod    = errors.New("unsupported http method")
	ErrUnknownHookType  = errors.New("unknown hook type")
	ErrInvalidHook      = errors.New("hook has wrong signature for its type")
	ErrDecoratorExists  = errors.New("decorator already registered")
	ErrNilHandler       = errors.New("handler cannot be nil")
	ErrNilPlugin        = errors.New("plugin cannot be nil")
	ErrPluginTimeout    = errors.New("plugin setup timed out")
	ErrAmbiguousParam   = errors.New("conflicting parameter name at the same depth")
	ErrUnknownScopeType = errors.New("unknown scope type")
)

// recognized reports whether err belongs to the framework taxonomy and, if
// so, returns its structured form. Unrecognized errors are re-raised to the
// hosting layer instead of being masked as a 500.
func recognized(err error) (Error, bool) {
	var e Error
	if errors.As(err, &e) {
		return e, true
	}
	return Error{}, false
}

// toError converts a recovered panic value to an error.
func toError(v any) error {
	switch e := v.(type) {
	case error:
		return e
	case string:
		return errors.New(e)
	default:
		return fmt.Errorf("panic: %v", e)
	}
}
