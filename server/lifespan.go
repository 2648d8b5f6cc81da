package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/fastigo-dev/fastigo"
	"github.com/fastigo-dev/fastigo/transport"
)

// ErrLifespanClosed is returned when a lifespan event is sent after the
// dispatcher ended its lifespan scope.
var ErrLifespanClosed = errors.New("lifespan already closed")

// lifespan drives one long-lived lifespan scope through Dispatch. The
// server pushes startup and shutdown events in; the dispatcher's acks
// come back out.
type lifespan struct {
	events chan transport.Message
	acks   chan transport.Message
	done   chan error
}

func newLifespan(app *fastigo.App) *lifespan {
	l := &lifespan{
		events: make(chan transport.Message),
		acks:   make(chan transport.Message, 1),
		done:   make(chan error, 1),
	}

	receive := func(ctx context.Context) (transport.Message, error) {
		select {
		case msg := <-l.events:
			return msg, nil
		case <-ctx.Done():
			return transport.Message{}, ctx.Err()
		}
	}
	send := func(ctx context.Context, msg transport.Message) error {
		select {
		case l.acks <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		scope := transport.Scope{Type: transport.ScopeLifespan}
		l.done <- app.Dispatch(context.Background(), scope, receive, send)
	}()
	return l
}

// startup delivers the startup event and waits for its ack.
func (l *lifespan) startup(ctx context.Context) error {
	return l.signal(ctx, transport.MessageLifespanStartup, transport.MessageLifespanStartupComplete)
}

// shutdown delivers the shutdown event, waits for its ack and for the
// dispatcher to finish the scope.
func (l *lifespan) shutdown(ctx context.Context) error {
	if err := l.signal(ctx, transport.MessageLifespanShutdown, transport.MessageLifespanShutdownComplete); err != nil {
		return err
	}
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *lifespan) signal(ctx context.Context, event, want string) error {
	select {
	case l.events <- transport.Message{Type: event}:
	case err := <-l.done:
		if err != nil {
			return err
		}
		return ErrLifespanClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case ack := <-l.acks:
		if ack.Type != want {
			return fmt.Errorf("lifespan %s failed: %s", event, string(ack.Body))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
