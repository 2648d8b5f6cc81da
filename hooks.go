package fastigo

import (
	"context"
	"fmt"
	"slices"
)

// Handler serves a routed request. Returning an error moves the request
// into error recovery; returning nil without sending produces an empty 200.
type Handler func(ctx context.Context, req *Request, rep *Reply) error

// Middleware runs before any hooks or the handler. It receives a
// send-restricted reply view: it may adjust status, headers and cookies,
// but terminal calls are ignored with a logged warning.
type Middleware func(ctx context.Context, req *Request, rep *RestrictedReply) error

// Hook runs at the OnRequest or PreHandler stage with full reply access.
// Sending a reply from a hook short-circuits the rest of the pipeline.
type Hook func(ctx context.Context, req *Request, rep *Reply) error

// ResponseHook runs after the reply has been sent. The restricted view
// makes any attempt to send again a logged no-op.
type ResponseHook func(ctx context.Context, req *Request, rep *RestrictedReply) error

// ErrorHook runs when a stage fails, before the application error handler.
// Sending a reply from an error hook settles the request.
type ErrorHook func(ctx context.Context, req *Request, rep *Reply, err error) error

// ErrorHandler is the application-level error fallback, consulted after
// route error hooks. Returning a non-nil error defers to the default
// handling (structured errors become 500 responses, the rest re-raise).
type ErrorHandler func(ctx context.Context, req *Request, rep *Reply, err error) error

// HookType names a lifecycle stage hooks can attach to.
type HookType uint8

const (
	OnRequest HookType = iota
	PreHandler
	OnResponse
	OnError
)

func (t HookType) String() string {
	switch t {
	case OnRequest:
		return "onRequest"
	case PreHandler:
		return "preHandler"
	case OnResponse:
		return "onResponse"
	case OnError:
		return "onError"
	default:
		return fmt.Sprintf("hookType(%d)", t)
	}
}

// hookSet holds the ordered hook lists for each stage. Every route record
// owns its own copy, frozen at registration time.
type hookSet struct {
	onRequest  []Hook
	preHandler []Hook
	onResponse []ResponseHook
	onError    []ErrorHook
}

// clone returns a deep copy; appending to the copy leaves the original
// lists untouched.
func (h hookSet) clone() hookSet {
	return hookSet{
		onRequest:  slices.Clone(h.onRequest),
		preHandler: slices.Clone(h.preHandler),
		onResponse: slices.Clone(h.onResponse),
		onError:    slices.Clone(h.onError),
	}
}

// add appends fn to the list for t, checking that the value matches the
// stage's signature.
func (h *hookSet) add(t HookType, fn any) error {
	switch t {
	case OnRequest, PreHandler:
		hook, ok := asHook(fn)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidHook, t)
		}
		if t == OnRequest {
			h.onRequest = append(h.onRequest, hook)
		} else {
			h.preHandler = append(h.preHandler, hook)
		}
	case OnResponse:
		hook, ok := fn.(ResponseHook)
		if !ok {
			raw, rok := fn.(func(context.Context, *Request, *RestrictedReply) error)
			if !rok {
				return fmt.Errorf("%w: %s", ErrInvalidHook, t)
			}
			hook = raw
		}
		h.onResponse = append(h.onResponse, hook)
	case OnError:
		hook, ok := fn.(ErrorHook)
		if !ok {
			raw, rok := fn.(func(context.Context, *Request, *Reply, error) error)
			if !rok {
				return fmt.Errorf("%w: %s", ErrInvalidHook, t)
			}
			hook = raw
		}
		h.onError = append(h.onError, hook)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownHookType, t)
	}
	return nil
}

func asHook(fn any) (Hook, bool) {
	switch v := fn.(type) {
	case Hook:
		return v, true
	case Handler:
		return Hook(v), true
	case func(context.Context, *Request, *Reply) error:
		return v, true
	default:
		return nil, false
	}
}
