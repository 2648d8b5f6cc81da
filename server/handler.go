package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/fastigo-dev/fastigo"
	"github.com/fastigo-dev/fastigo/transport"
)

// Handler bridges net/http onto the dispatch protocol: the request body
// streams in as http.request frames, response frames stream back out
// onto the ResponseWriter.
func Handler(app *fastigo.App, logger *slog.Logger) http.Handler {
	return &handler{app: app, logger: logger}
}

type handler struct {
	app    *fastigo.App
	logger *slog.Logger
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	scope := transport.Scope{
		Type:     transport.ScopeHTTP,
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Headers:  flattenHeader(r.Header),
	}

	receive := bodyReceiver(r.Body)

	started := false
	send := func(ctx context.Context, msg transport.Message) error {
		switch msg.Type {
		case transport.MessageResponseStart:
			for _, hdr := range msg.Headers {
				w.Header().Add(hdr.Key, hdr.Value)
			}
			w.WriteHeader(msg.Status)
			started = true
		case transport.MessageResponseBody:
			if len(msg.Body) > 0 {
				if _, err := w.Write(msg.Body); err != nil {
					return err
				}
			}
			if msg.MoreBody {
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
			}
		}
		return nil
	}

	if err := h.app.Dispatch(r.Context(), scope, receive, send); err != nil {
		h.logger.Error("unhandled dispatch error", "method", r.Method, "path", r.URL.Path, "error", err)
		if !started {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// bodyReceiver chunks the request body into http.request frames. After
// the final frame it keeps returning empty closed frames so extra reads
// never block.
func bodyReceiver(body io.Reader) transport.ReceiveFunc {
	done := false
	return func(ctx context.Context) (transport.Message, error) {
		if done {
			return transport.Message{Type: transport.MessageHTTPRequest}, nil
		}
		buf := make([]byte, requestChunkSize)
		n, err := body.Read(buf)
		switch {
		case err == io.EOF:
			done = true
			return transport.Message{Type: transport.MessageHTTPRequest, Body: buf[:n]}, nil
		case err != nil:
			return transport.Message{}, err
		default:
			return transport.Message{Type: transport.MessageHTTPRequest, Body: buf[:n], MoreBody: true}, nil
		}
	}
}

func flattenHeader(h http.Header) []transport.Header {
	out := make([]transport.Header, 0, len(h))
	for key, values := range h {
		for _, v := range values {
			out = append(out, transport.Header{Key: key, Value: v})
		}
	}
	return out
}
