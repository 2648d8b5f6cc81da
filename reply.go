package fastigo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/fastigo-dev/fastigo/transport"
)

// streamBlockSize is the frame size for SendFileStream.
const streamBlockSize = 64 * 1024

// Reply builds and sends exactly one response. Builder methods return the
// receiver for chaining; terminal methods emit the response.start and
// body frames, mark the reply sent, and fire the onResponse hooks. A
// second terminal call fails with ErrReplyAlreadySent.
type Reply struct {
	send        transport.SendFunc
	logger      *slog.Logger
	serializers []Serializer
	corsHeaders []transport.Header
	onResponse  []ResponseHook
	req         *Request

	status      int
	contentType string
	headers     []transport.Header
	cookies     []*http.Cookie
	body        []byte
	started     bool
	sent        bool
	err         error
}

func newReply(send transport.SendFunc, req *Request, serializers []Serializer, corsHeaders []transport.Header, onResponse []ResponseHook, logger *slog.Logger) *Reply {
	return &Reply{
		send:        send,
		req:         req,
		serializers: serializers,
		corsHeaders: corsHeaders,
		onResponse:  onResponse,
		logger:      logger,
		status:      http.StatusOK,
	}
}

// Sent reports whether a terminal method has completed.
func (r *Reply) Sent() bool { return r.sent }

// Status returns the currently staged status code.
func (r *Reply) Status() int { return r.status }

// Code stages the response status. Values outside 100..599 poison the
// reply; the next terminal call reports ErrInvalidStatusCode.
func (r *Reply) Code(status int) *Reply {
	if status < 100 || status > 599 {
		r.err = fmt.Errorf("%w: %d", ErrInvalidStatusCode, status)
		return r
	}
	r.status = status
	return r
}

// Type stages the Content-Type header.
func (r *Reply) Type(contentType string) *Reply {
	r.contentType = contentType
	return r
}

// Header stages a response header, replacing any staged value for the
// same name.
func (r *Reply) Header(key, value string) *Reply {
	for i, h := range r.headers {
		if strings.EqualFold(h.Key, key) {
			r.headers[i].Value = value
			return r
		}
	}
	r.headers = append(r.headers, transport.Header{Key: key, Value: value})
	return r
}

// HeaderValue returns a staged header value, or "".
func (r *Reply) HeaderValue(key string) string {
	for _, h := range r.headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

// RemoveHeader drops a staged header.
func (r *Reply) RemoveHeader(key string) *Reply {
	for i, h := range r.headers {
		if strings.EqualFold(h.Key, key) {
			r.headers = append(r.headers[:i], r.headers[i+1:]...)
			return r
		}
	}
	return r
}

// Cookie stages a Set-Cookie header.
func (r *Reply) Cookie(c *http.Cookie) *Reply {
	r.cookies = append(r.cookies, c)
	return r
}

// JSON stages a JSON body. Marshal failures surface at the terminal call.
func (r *Reply) JSON(v any) *Reply {
	body, err := json.Marshal(v)
	if err != nil {
		r.err = fmt.Errorf("encode json body: %w", err)
		return r
	}
	r.body = body
	r.contentType = "application/json"
	return r
}

// Text stages a plain-text body.
func (r *Reply) Text(s string) *Reply {
	r.body = []byte(s)
	r.contentType = "text/plain"
	return r
}

// HTML stages an HTML body.
func (r *Reply) HTML(s string) *Reply {
	r.body = []byte(s)
	r.contentType = "text/html"
	return r
}

// Send emits the staged status, headers and body.
func (r *Reply) Send(ctx context.Context) error {
	if err := r.start(ctx); err != nil {
		return err
	}
	return r.finish(ctx, r.body)
}

// SendAny serializes v through the application serializer chain and sends
// the result. An explicitly staged Content-Type takes precedence over the
// serializer's.
func (r *Reply) SendAny(ctx context.Context, v any) error {
	contentType, body, err := serialize(r.serializers, v)
	if err != nil {
		return err
	}
	if r.contentType == "" {
		r.contentType = contentType
	}
	r.body = body
	return r.Send(ctx)
}

// SendCode sends an empty response with the given status.
func (r *Reply) SendCode(ctx context.Context, status int) error {
	r.Code(status)
	r.body = nil
	return r.Send(ctx)
}

// Redirect sends an empty redirect to location. A zero status means 302.
func (r *Reply) Redirect(ctx context.Context, location string, status int) error {
	if status == 0 {
		status = http.StatusFound
	}
	r.Code(status).Header("Location", location)
	r.body = nil
	return r.Send(ctx)
}

// SendFile reads the whole file at path and sends it. A missing or
// unreadable file reports ErrFileNotFound.
func (r *Reply) SendFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if r.contentType == "" {
		r.contentType = contentTypeFor(path)
	}
	r.body = data
	return r.Send(ctx)
}

// SendFileStream sends the file at path in fixed-size body frames instead
// of loading it into memory.
func (r *Reply) SendFileStream(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	defer f.Close()

	if r.contentType == "" {
		r.contentType = contentTypeFor(path)
	}
	buf := make([]byte, streamBlockSize)
	return r.SendStream(ctx, func() ([]byte, error) {
		n, err := f.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		return nil, err
	})
}

// SendStream pulls chunks from next until it returns io.EOF, emitting
// each as a body frame with more to follow, then closes the stream with
// an empty final frame. Any other error from next aborts the stream.
func (r *Reply) SendStream(ctx context.Context, next func() ([]byte, error)) error {
	if err := r.start(ctx); err != nil {
		return err
	}
	for {
		chunk, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		msg := transport.Message{Type: transport.MessageResponseBody, Body: chunk, MoreBody: true}
		if err := r.send(ctx, msg); err != nil {
			return err
		}
	}
	return r.finish(ctx, nil)
}

// start validates the reply state and emits the response.start frame with
// staged headers, cookies and the application CORS headers. Once the frame
// is on the wire the reply counts as started even if the body never
// completes, so no second response.start can follow it.
func (r *Reply) start(ctx context.Context) error {
	if r.err != nil {
		return r.err
	}
	if r.started || r.sent {
		return ErrReplyAlreadySent
	}

	headers := make([]transport.Header, 0, len(r.headers)+len(r.cookies)+len(r.corsHeaders)+1)
	if r.contentType != "" {
		headers = append(headers, transport.Header{Key: "Content-Type", Value: r.contentType})
	}
	headers = append(headers, r.headers...)
	for _, c := range r.cookies {
		headers = append(headers, transport.Header{Key: "Set-Cookie", Value: c.String()})
	}
	headers = append(headers, r.corsHeaders...)

	err := r.send(ctx, transport.Message{
		Type:    transport.MessageResponseStart,
		Status:  r.status,
		Headers: headers,
	})
	if err != nil {
		return err
	}
	r.started = true
	return nil
}

// finish emits the closing body frame, marks the reply sent and runs the
// onResponse hooks against the restricted view. Hook failures are logged,
// never propagated: the response is already on the wire.
func (r *Reply) finish(ctx context.Context, body []byte) error {
	if err := r.send(ctx, transport.Message{Type: transport.MessageResponseBody, Body: body}); err != nil {
		return err
	}
	r.sent = true

	restricted := &RestrictedReply{reply: r}
	for _, hook := range r.onResponse {
		if err := hook(ctx, r.req, restricted); err != nil {
			r.logger.Warn("onResponse hook failed", "error", err)
		}
	}
	return nil
}

// RestrictedReply is the reply view handed to middlewares and onResponse
// hooks. Staging methods pass through; terminal methods are warned no-ops
// so a middleware can never hijack or double-send the response.
type RestrictedReply struct {
	reply *Reply
}

// Sent reports whether the underlying reply has been sent.
func (r *RestrictedReply) Sent() bool { return r.reply.sent }

// Status returns the staged status code.
func (r *RestrictedReply) Status() int { return r.reply.status }

// Code stages the response status.
func (r *RestrictedReply) Code(status int) *RestrictedReply {
	r.reply.Code(status)
	return r
}

// Type stages the Content-Type header.
func (r *RestrictedReply) Type(contentType string) *RestrictedReply {
	r.reply.Type(contentType)
	return r
}

// Header stages a response header.
func (r *RestrictedReply) Header(key, value string) *RestrictedReply {
	r.reply.Header(key, value)
	return r
}

// HeaderValue returns a staged header value, or "".
func (r *RestrictedReply) HeaderValue(key string) string {
	return r.reply.HeaderValue(key)
}

// RemoveHeader drops a staged header.
func (r *RestrictedReply) RemoveHeader(key string) *RestrictedReply {
	r.reply.RemoveHeader(key)
	return r
}

// Cookie stages a Set-Cookie header.
func (r *RestrictedReply) Cookie(c *http.Cookie) *RestrictedReply {
	r.reply.Cookie(c)
	return r
}

// Send is a no-op on the restricted view.
func (r *RestrictedReply) Send(ctx context.Context) error {
	r.warn("Send")
	return nil
}

// SendAny is a no-op on the restricted view.
func (r *RestrictedReply) SendAny(ctx context.Context, v any) error {
	r.warn("SendAny")
	return nil
}

// SendCode is a no-op on the restricted view.
func (r *RestrictedReply) SendCode(ctx context.Context, status int) error {
	r.warn("SendCode")
	return nil
}

// Redirect is a no-op on the restricted view.
func (r *RestrictedReply) Redirect(ctx context.Context, location string, status int) error {
	r.warn("Redirect")
	return nil
}

func (r *RestrictedReply) warn(method string) {
	r.reply.logger.Warn("terminal reply call ignored on restricted view", "method", method)
}
