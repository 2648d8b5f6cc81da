package fastigo

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/fastigo-dev/fastigo/transport"
)

// Dispatch serves one scope. HTTP scopes run the request pipeline;
// lifespan scopes run the startup and shutdown callables. The returned
// error is reserved for failures the application could not absorb: the
// hosting layer decides whether to tear the connection down.
func (a *App) Dispatch(ctx context.Context, scope transport.Scope, receive transport.ReceiveFunc, send transport.SendFunc) error {
	switch scope.Type {
	case transport.ScopeHTTP:
		return a.dispatchHTTP(ctx, scope, receive, send)
	case transport.ScopeLifespan:
		return a.dispatchLifespan(ctx, receive, send)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScopeType, scope.Type)
	}
}

func (a *App) dispatchHTTP(ctx context.Context, scope transport.Scope, receive transport.ReceiveFunc, send transport.SendFunc) error {
	// Paths whose last segment names a file never touch the trie.
	if isStaticPath(scope.Path) {
		return a.serveArchive(ctx, scope, receive, send)
	}

	rec, params, ok := a.router.findRoute(scope.Method, scope.Path)
	if !ok {
		return a.dispatchUnrouted(ctx, scope, receive, send)
	}

	req := newRequest(scope, receive, params, a.decorators, a.logger)
	rep := newReply(send, req, a.serializers, a.corsHeaders, rec.hooks.onResponse, a.logger)
	return a.runPipeline(ctx, rec, req, rep)
}

// dispatchUnrouted answers paths the trie cannot resolve to a handler:
// plain 404, 405 with an Allow header when the path exists under other
// methods, and the implicit OPTIONS preflight.
func (a *App) dispatchUnrouted(ctx context.Context, scope transport.Scope, receive transport.ReceiveFunc, send transport.SendFunc) error {
	req := newRequest(scope, receive, nil, a.decorators, a.logger)
	rep := newReply(send, req, a.serializers, a.corsHeaders, a.hooks.onResponse, a.logger)

	allowed := a.router.methods(scope.Path)
	if len(allowed) == 0 {
		a.logger.Info("route not found", "method", scope.Method, "path", scope.Path)
		return rep.Code(http.StatusNotFound).
			JSON(map[string]string{"error": "Route not found"}).
			Send(ctx)
	}

	allow := strings.Join(allowed, ", ")
	if scope.Method == http.MethodOptions {
		return rep.Code(http.StatusOK).Header("Allow", allow).Send(ctx)
	}

	a.logger.Info("method not allowed", "method", scope.Method, "path", scope.Path, "allow", allow)
	return rep.Code(http.StatusMethodNotAllowed).
		Header("Allow", allow).
		JSON(map[string]string{"error": "Method not allowed"}).
		Send(ctx)
}

// runPipeline drives one routed request through its stages: middlewares,
// onRequest hooks, body load, preHandler hooks, handler. A reply sent at
// any stage short-circuits the rest; a handler that returns without
// sending gets an empty 200. Errors and panics divert into recovery.
func (a *App) runPipeline(ctx context.Context, rec *routeRecord, req *Request, rep *Reply) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = a.recoverError(ctx, rec, req, rep, toError(v))
		}
	}()

	restricted := &RestrictedReply{reply: rep}
	for _, mw := range rec.middlewares {
		if err := mw(ctx, req, restricted); err != nil {
			return a.recoverError(ctx, rec, req, rep, err)
		}
	}

	for _, hook := range rec.hooks.onRequest {
		if err := hook(ctx, req, rep); err != nil {
			return a.recoverError(ctx, rec, req, rep, err)
		}
		if rep.Sent() {
			return nil
		}
	}

	if err := req.LoadBody(ctx); err != nil {
		return a.recoverError(ctx, rec, req, rep, err)
	}

	for _, hook := range rec.hooks.preHandler {
		if err := hook(ctx, req, rep); err != nil {
			return a.recoverError(ctx, rec, req, rep, err)
		}
		if rep.Sent() {
			return nil
		}
	}

	if err := rec.handler(ctx, req, rep); err != nil {
		return a.recoverError(ctx, rec, req, rep, err)
	}
	if !rep.Sent() {
		return rep.SendCode(ctx, http.StatusOK)
	}
	return nil
}

// recoverError layers error handling: route onError hooks first, then the
// application error handler, then the default. Structured errors render
// as JSON with the stack logged server-side; anything else returns to the
// hosting layer unmasked.
func (a *App) recoverError(ctx context.Context, rec *routeRecord, req *Request, rep *Reply, cause error) error {
	if rec != nil {
		for _, hook := range rec.hooks.onError {
			if err := hook(ctx, req, rep, cause); err != nil {
				a.logger.Warn("onError hook failed", "error", err, "cause", cause)
			}
			if rep.Sent() {
				return nil
			}
		}
	}

	if a.errorHandler != nil {
		if err := a.errorHandler(ctx, req, rep, cause); err != nil {
			a.logger.Warn("error handler failed, falling back", "error", err, "cause", cause)
		}
		if rep.Sent() {
			return nil
		}
	}

	e, ok := recognized(cause)
	if !ok {
		return cause
	}

	route := ""
	if rec != nil {
		route = rec.rawPath
	}
	a.logger.Error("request failed", "route", route, "error", cause, "stack", string(debug.Stack()))
	// A reply whose response.start frame is already on the wire cannot
	// carry an error response; the failure stays logged only.
	if rep.started || rep.sent {
		return nil
	}
	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	rep.err = nil // a staging error is superseded by the error response itself
	return rep.Code(status).
		JSON(map[string]string{"error": e.String()}).
		Send(ctx)
}

// serveArchive is the static fallback. A resolvable file is sent whole
// with its inferred content type; everything else is a 404, never an
// error.
func (a *App) serveArchive(ctx context.Context, scope transport.Scope, receive transport.ReceiveFunc, send transport.SendFunc) error {
	req := newRequest(scope, receive, nil, a.decorators, a.logger)
	rep := newReply(send, req, a.serializers, a.corsHeaders, a.hooks.onResponse, a.logger)

	if full := resolveStatic(a.staticDir, scope.Path); full != "" {
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return rep.SendFile(ctx, full)
		}
	}

	a.logger.Info("static file not found", "path", scope.Path)
	return rep.Code(http.StatusNotFound).
		JSON(map[string]string{"error": "Route not found"}).
		Send(ctx)
}

// dispatchLifespan processes lifespan events until shutdown completes. A
// startup failure is acked to the hosting layer and returned so serving
// can be aborted.
func (a *App) dispatchLifespan(ctx context.Context, receive transport.ReceiveFunc, send transport.SendFunc) error {
	for {
		msg, err := receive(ctx)
		if err != nil {
			return err
		}
		switch msg.Type {
		case transport.MessageLifespanStartup:
			if err := runLifecycle(ctx, a.startup); err != nil {
				a.logger.Error("lifespan startup failed", "error", err)
				if sendErr := send(ctx, transport.Message{Type: transport.MessageLifespanStartupFailed, Body: []byte(err.Error())}); sendErr != nil {
					return sendErr
				}
				return err
			}
			a.logger.Info("lifespan startup complete")
			if err := send(ctx, transport.Message{Type: transport.MessageLifespanStartupComplete}); err != nil {
				return err
			}
		case transport.MessageLifespanShutdown:
			if err := runLifecycle(ctx, a.shutdown); err != nil {
				a.logger.Error("lifespan shutdown failed", "error", err)
				if sendErr := send(ctx, transport.Message{Type: transport.MessageLifespanShutdownFailed, Body: []byte(err.Error())}); sendErr != nil {
					return sendErr
				}
				return err
			}
			a.logger.Info("lifespan shutdown complete")
			return send(ctx, transport.Message{Type: transport.MessageLifespanShutdownComplete})
		default:
			a.logger.Warn("unexpected lifespan message", "type", msg.Type)
		}
	}
}

func runLifecycle(ctx context.Context, fns []LifecycleFunc) error {
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}
