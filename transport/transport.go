package transport

import "context"

// Scope types delivered by the hosting layer.
const (
	ScopeHTTP     = "http"
	ScopeLifespan = "lifespan"
)

// Message types exchanged with the hosting layer.
const (
	// Received messages.
	MessageHTTPRequest      = "http.request"
	MessageLifespanStartup  = "lifespan.startup"
	MessageLifespanShutdown = "lifespan.shutdown"

	// Sent messages.
	MessageResponseStart            = "http.response.start"
	MessageResponseBody             = "http.response.body"
	MessageLifespanStartupComplete  = "lifespan.startup.complete"
	MessageLifespanStartupFailed    = "lifespan.startup.failed"
	MessageLifespanShutdownComplete = "lifespan.shutdown.complete"
	MessageLifespanShutdownFailed   = "lifespan.shutdown.failed"
)

// Header is a single header pair. A slice of Header preserves both
// ordering and duplicate keys (Set-Cookie, Vary), which net/http's
// map-based header type cannot.
type Header struct {
	Key   string
	Value string
}

// Scope carries per-connection metadata for one inbound unit of work:
// either an HTTP request (method, path, query, headers) or a lifespan
// session. It is built by the hosting layer and never mutated by the core.
type Scope struct {
	Type     string
	Method   string
	Path     string
	RawQuery string
	Headers  []Header
}

// Message is a single protocol frame. The set of meaningful fields
// depends on Type: http.request carries Body/MoreBody, http.response.start
// carries Status/Headers, http.response.body carries Body/MoreBody, and
// the lifespan acks carry Body as an optional failure description.
type Message struct {
	Type     string
	Status   int
	Headers  []Header
	Body     []byte
	MoreBody bool
}

// ReceiveFunc yields the next inbound message for the current scope.
// It blocks until a message is available, the context is canceled, or the
// hosting layer closes the connection.
type ReceiveFunc func(ctx context.Context) (Message, error)

// SendFunc delivers one outbound message to the hosting layer.
type SendFunc func(ctx context.Context, msg Message) error
