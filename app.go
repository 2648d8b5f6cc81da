package fastigo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/fastigo-dev/fastigo/transport"
)

// DefaultPluginTimeout bounds plugin setup unless overridden.
const DefaultPluginTimeout = 10 * time.Second

// pathPattern accepts "/" or slash-separated segments of word characters,
// each optionally led by ":" to mark a parameter.
var pathPattern = regexp.MustCompile(`^(/:?[_a-zA-Z0-9]+)*$|^/$`)

var supportedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// LifecycleFunc runs during lifespan startup or shutdown.
type LifecycleFunc func(ctx context.Context) error

// Plugin receives a scoped application to register routes, hooks,
// middlewares and decorators on. Everything it registers merges back
// into the parent when it returns.
type Plugin func(ctx context.Context, app *App) error

// App is the assembly registry and dispatcher. Registration is not safe
// for concurrent use; assemble the application fully, then serve.
type App struct {
	router        *Router
	logger        *slog.Logger
	hooks         hookSet
	middlewares   []Middleware
	decorators    map[string]any
	serializers   []Serializer
	errorHandler  ErrorHandler
	corsHeaders   []transport.Header
	staticDir     string
	startup       []LifecycleFunc
	shutdown      []LifecycleFunc
	prefix        string
	pluginTimeout time.Duration
}

// New builds an empty application.
func New(opts ...Option) *App {
	a := &App{
		router:        newRouter(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		decorators:    make(map[string]any),
		serializers:   defaultSerializers(),
		pluginTimeout: DefaultPluginTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Get registers a GET route.
func (a *App) Get(path string, h Handler, opts ...RouteOption) error {
	return a.Handle(http.MethodGet, path, h, opts...)
}

// Head registers a HEAD route.
func (a *App) Head(path string, h Handler, opts ...RouteOption) error {
	return a.Handle(http.MethodHead, path, h, opts...)
}

// Post registers a POST route.
func (a *App) Post(path string, h Handler, opts ...RouteOption) error {
	return a.Handle(http.MethodPost, path, h, opts...)
}

// Put registers a PUT route.
func (a *App) Put(path string, h Handler, opts ...RouteOption) error {
	return a.Handle(http.MethodPut, path, h, opts...)
}

// Patch registers a PATCH route.
func (a *App) Patch(path string, h Handler, opts ...RouteOption) error {
	return a.Handle(http.MethodPatch, path, h, opts...)
}

// Delete registers a DELETE route.
func (a *App) Delete(path string, h Handler, opts ...RouteOption) error {
	return a.Handle(http.MethodDelete, path, h, opts...)
}

// Handle validates and registers one (method, path) route. The ambient
// hooks and middlewares are snapshotted into the record, so later Use or
// AddHook calls leave existing routes alone.
func (a *App) Handle(method, path string, h Handler, opts ...RouteOption) error {
	if h == nil {
		return fmt.Errorf("%w: %s %s", ErrNilHandler, method, path)
	}
	if !supportedMethods[method] {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	path = joinPrefix(a.prefix, path)
	if err := validatePath(path); err != nil {
		return err
	}
	if a.router.hasRoute(method, path) {
		return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, path)
	}

	var ro routeOptions
	for _, opt := range opts {
		opt(&ro)
	}

	rec := &routeRecord{
		handler:     h,
		rawPath:     path,
		hooks:       a.hooks.clone(),
		middlewares: slices.Clone(a.middlewares),
	}
	rec.hooks.onRequest = append(rec.hooks.onRequest, ro.hooks.onRequest...)
	rec.hooks.preHandler = append(rec.hooks.preHandler, ro.hooks.preHandler...)
	rec.hooks.onResponse = append(rec.hooks.onResponse, ro.hooks.onResponse...)
	rec.hooks.onError = append(rec.hooks.onError, ro.hooks.onError...)
	rec.middlewares = append(rec.middlewares, ro.middlewares...)

	return a.router.addRoute(method, path, rec)
}

// validatePath checks the pattern shape and its parameter names: names
// must not start with a digit and must not repeat within the pattern.
func validatePath(path string) error {
	if path == "" || !pathPattern.MatchString(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	seen := make(map[string]bool)
	for _, seg := range splitPath(path) {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		if name[0] >= '0' && name[0] <= '9' {
			return fmt.Errorf("%w: param %q starts with a digit", ErrInvalidPath, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate param %q", ErrInvalidPath, name)
		}
		seen[name] = true
	}
	return nil
}

func joinPrefix(prefix, path string) string {
	if prefix == "" {
		return path
	}
	if path == "/" {
		return prefix
	}
	return prefix + path
}

// Use appends an application-wide middleware. Only routes registered
// afterwards see it.
func (a *App) Use(mw Middleware) {
	a.middlewares = append(a.middlewares, mw)
}

// AddHook appends an application-wide hook for the given stage. fn must
// match the stage signature: Hook for OnRequest and PreHandler,
// ResponseHook for OnResponse, ErrorHook for OnError.
func (a *App) AddHook(t HookType, fn any) error {
	return a.hooks.add(t, fn)
}

// Decorate registers a named extension value. Duplicate keys are
// rejected so plugins cannot silently clobber each other.
func (a *App) Decorate(key string, value any) error {
	if _, exists := a.decorators[key]; exists {
		return fmt.Errorf("%w: %q", ErrDecoratorExists, key)
	}
	a.decorators[key] = value
	return nil
}

// HasDecorator reports whether key is registered.
func (a *App) HasDecorator(key string) bool {
	_, ok := a.decorators[key]
	return ok
}

// Decorator returns the value registered under key.
func (a *App) Decorator(key string) (any, bool) {
	v, ok := a.decorators[key]
	return v, ok
}

// DecoratorValue returns the decorator under key when it is present and
// holds a T.
func DecoratorValue[T any](a *App, key string) (T, bool) {
	v, ok := a.decorators[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// OnStartup appends a lifespan startup callable.
func (a *App) OnStartup(fn LifecycleFunc) {
	a.startup = append(a.startup, fn)
}

// OnShutdown appends a lifespan shutdown callable.
func (a *App) OnShutdown(fn LifecycleFunc) {
	a.shutdown = append(a.shutdown, fn)
}

// Register runs plugin against a scoped view of the application: same
// routing trie, private copies of the ambient state, and an optional
// path prefix for every route it adds. When the plugin returns, its
// state merges back. Setup is bounded by the plugin timeout; exceeding
// it is a fatal assembly error.
func (a *App) Register(plugin Plugin, opts ...PluginOption) error {
	if plugin == nil {
		return ErrNilPlugin
	}
	po := pluginOptions{timeout: a.pluginTimeout}
	for _, opt := range opts {
		opt(&po)
	}
	if po.prefix != "" {
		if err := validatePath(po.prefix); err != nil {
			return fmt.Errorf("plugin prefix: %w", err)
		}
	}

	scoped := &App{
		router:        a.router,
		logger:        a.logger,
		hooks:         a.hooks.clone(),
		middlewares:   slices.Clone(a.middlewares),
		decorators:    maps.Clone(a.decorators),
		serializers:   slices.Clone(a.serializers),
		errorHandler:  a.errorHandler,
		corsHeaders:   a.corsHeaders,
		staticDir:     a.staticDir,
		startup:       slices.Clone(a.startup),
		shutdown:      slices.Clone(a.shutdown),
		prefix:        joinPrefix(a.prefix, po.prefix),
		pluginTimeout: a.pluginTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), po.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- plugin(ctx, scoped)
	}()

	select {
	case err := <-done:
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s", ErrPluginTimeout, po.timeout)
			}
			return fmt.Errorf("plugin setup: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("%w after %s", ErrPluginTimeout, po.timeout)
	}

	a.hooks = scoped.hooks
	a.middlewares = scoped.middlewares
	a.decorators = scoped.decorators
	a.startup = scoped.startup
	a.shutdown = scoped.shutdown
	return nil
}

// PrintRoutes writes the routing trie diagnostic dump to w.
func (a *App) PrintRoutes(w io.Writer) {
	a.router.printTree(w)
}

// Methods returns the methods answering at path, implicit OPTIONS
// included, or nil for an unknown path.
func (a *App) Methods(path string) []string {
	return a.router.methods(path)
}
