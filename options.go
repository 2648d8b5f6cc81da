package fastigo

import (
	"log/slog"
	"time"
)

// Option configures an App at construction time.
type Option func(*App)

// WithLogger sets the structured logger used across the dispatch
// pipeline. The default logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithErrorHandler installs the application-level error fallback, called
// after route error hooks and before the default handling.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithCORS renders cfg once and attaches the resulting headers to every
// response and preflight.
func WithCORS(cfg CORSConfig) Option {
	return func(a *App) {
		a.corsHeaders = cfg.headers()
	}
}

// WithStaticDir enables the archive fallback: request paths whose last
// segment looks like a filename are served from root instead of the
// routing trie.
func WithStaticDir(root string) Option {
	return func(a *App) {
		a.staticDir = root
	}
}

// WithSerializer prepends a serializer to the chain, giving it precedence
// over the built-in ones.
func WithSerializer(s Serializer) Option {
	return func(a *App) {
		a.serializers = append([]Serializer{s}, a.serializers...)
	}
}

// WithPluginTimeout bounds each plugin's setup time. The default is 10
// seconds.
func WithPluginTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.pluginTimeout = d
		}
	}
}

// routeOptions collects the per-route extras gathered by RouteOption
// values during registration.
type routeOptions struct {
	hooks       hookSet
	middlewares []Middleware
}

// RouteOption attaches route-local hooks or middlewares to a single
// registration.
type RouteOption func(*routeOptions)

// WithOnRequestHook appends route-local onRequest hooks.
func WithOnRequestHook(hooks ...Hook) RouteOption {
	return func(o *routeOptions) {
		o.hooks.onRequest = append(o.hooks.onRequest, hooks...)
	}
}

// WithPreHandlerHook appends route-local preHandler hooks.
func WithPreHandlerHook(hooks ...Hook) RouteOption {
	return func(o *routeOptions) {
		o.hooks.preHandler = append(o.hooks.preHandler, hooks...)
	}
}

// WithOnResponseHook appends route-local onResponse hooks.
func WithOnResponseHook(hooks ...ResponseHook) RouteOption {
	return func(o *routeOptions) {
		o.hooks.onResponse = append(o.hooks.onResponse, hooks...)
	}
}

// WithOnErrorHook appends route-local onError hooks.
func WithOnErrorHook(hooks ...ErrorHook) RouteOption {
	return func(o *routeOptions) {
		o.hooks.onError = append(o.hooks.onError, hooks...)
	}
}

// WithRouteMiddleware appends route-local middlewares, run after the
// application-wide ones.
func WithRouteMiddleware(mws ...Middleware) RouteOption {
	return func(o *routeOptions) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

// pluginOptions collects Register extras.
type pluginOptions struct {
	prefix  string
	timeout time.Duration
}

// PluginOption configures a single plugin registration.
type PluginOption func(*pluginOptions)

// WithPrefix scopes every route the plugin registers under prefix.
func WithPrefix(prefix string) PluginOption {
	return func(o *pluginOptions) {
		o.prefix = prefix
	}
}

// WithSetupTimeout overrides the application plugin timeout for one
// registration.
func WithSetupTimeout(d time.Duration) PluginOption {
	return func(o *pluginOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}
