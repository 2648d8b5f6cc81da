package fastigo

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/fastigo-dev/fastigo/transport"
)

// Request is the inbound half of a dispatched message. Metadata (method,
// path, query, headers, cookies, params) is available immediately; the
// body stays on the transport until LoadBody pulls it.
type Request struct {
	scope   transport.Scope
	receive transport.ReceiveFunc
	logger  *slog.Logger

	query      map[string]string
	headers    map[string]string
	cookies    map[string]string
	params     map[string]string
	decorators map[string]any

	body       *Body
	bodyLoaded bool
}

func newRequest(scope transport.Scope, receive transport.ReceiveFunc, params map[string]string, decorators map[string]any, logger *slog.Logger) *Request {
	req := &Request{
		scope:      scope,
		receive:    receive,
		logger:     logger,
		params:     params,
		decorators: decorators,
		query:      parseQuery(scope.RawQuery),
		headers:    make(map[string]string, len(scope.Headers)),
	}
	for _, h := range scope.Headers {
		req.headers[strings.ToLower(h.Key)] = h.Value
	}
	req.cookies = parseCookies(req.headers["cookie"])
	return req
}

// Method returns the HTTP method, uppercase.
func (r *Request) Method() string { return r.scope.Method }

// Path returns the raw request path.
func (r *Request) Path() string { return r.scope.Path }

// RawQuery returns the unparsed query string.
func (r *Request) RawQuery() string { return r.scope.RawQuery }

// Query returns the parsed query map. When a key repeats, the last value
// wins.
func (r *Request) Query() map[string]string { return r.query }

// QueryValue returns one query value, or "" when absent.
func (r *Request) QueryValue(key string) string { return r.query[key] }

// Header returns a header value by case-insensitive name, or "".
func (r *Request) Header(key string) string { return r.headers[strings.ToLower(key)] }

// Headers returns all headers keyed by lowercased name.
func (r *Request) Headers() map[string]string { return r.headers }

// Cookie returns a request cookie value, or "".
func (r *Request) Cookie(name string) string { return r.cookies[name] }

// Cookies returns all request cookies.
func (r *Request) Cookies() map[string]string { return r.cookies }

// Param returns a bound route parameter, or "".
func (r *Request) Param(name string) string { return r.params[name] }

// Params returns all bound route parameters. Nil when the route has none.
func (r *Request) Params() map[string]string { return r.params }

// Decorator returns an application decorator value by key.
func (r *Request) Decorator(key string) (any, bool) {
	v, ok := r.decorators[key]
	return v, ok
}

// LoadBody drains the transport body stream and parses it according to
// Content-Type. It is idempotent: the first call consumes the stream,
// later calls return immediately. The dispatcher calls it once before the
// preHandler stage; calling it from a handler is a no-op.
func (r *Request) LoadBody(ctx context.Context) error {
	if r.bodyLoaded {
		return nil
	}
	var raw []byte
	for {
		msg, err := r.receive(ctx)
		if err != nil {
			return err
		}
		if msg.Type != transport.MessageHTTPRequest {
			continue
		}
		raw = append(raw, msg.Body...)
		if !msg.MoreBody {
			break
		}
	}
	r.body = newBody(raw, r.headers["content-type"], r.logger)
	r.bodyLoaded = true
	return nil
}

// Body returns the parsed body. Nil until LoadBody has run.
func (r *Request) Body() *Body { return r.body }

// parseQuery splits a raw query string into a map. Later duplicates
// overwrite earlier ones. Values that fail percent-decoding are kept raw.
func parseQuery(rawQuery string) map[string]string {
	out := make(map[string]string)
	if rawQuery == "" {
		return out
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, val, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(val); err == nil {
			val = v
		}
		out[key] = val
	}
	return out
}

func parseCookies(header string) map[string]string {
	out := make(map[string]string)
	if header == "" {
		return out
	}
	for _, part := range strings.Split(header, ";") {
		name, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		out[name] = val
	}
	return out
}
