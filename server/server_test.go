package server_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastigo-dev/fastigo"
	"github.com/fastigo-dev/fastigo/server"
)

func TestServer_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("start_runs_until_canceled", func(t *testing.T) {
		t.Parallel()

		srv := server.New("127.0.0.1:0",
			server.WithLogger(discardLogger()),
			server.WithShutdownTimeout(time.Second),
		)
		app := fastigo.New()

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(ctx, app)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		err := <-errCh
		assert.ErrorIs(t, err, context.Canceled)
		require.NoError(t, srv.Stop())
	})

	t.Run("startup_failure_aborts_serving", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		app.OnStartup(func(ctx context.Context) error {
			return errors.New("migrations pending")
		})

		srv := server.New("127.0.0.1:0", server.WithLogger(discardLogger()))
		err := srv.Start(context.Background(), app)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "migrations pending")
	})

	t.Run("shutdown_runs_lifespan_hooks", func(t *testing.T) {
		t.Parallel()

		shutdownRan := make(chan struct{})
		app := fastigo.New()
		app.OnShutdown(func(ctx context.Context) error {
			close(shutdownRan)
			return nil
		})

		srv := server.New("127.0.0.1:0", server.WithLogger(discardLogger()))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(ctx, app)
		}()
		time.Sleep(100 * time.Millisecond)

		require.NoError(t, srv.Stop())
		select {
		case <-shutdownRan:
		case <-time.After(time.Second):
			t.Fatal("shutdown hook did not run")
		}
		cancel()
		<-errCh
	})

	t.Run("stop_without_start_is_noop", func(t *testing.T) {
		t.Parallel()

		srv := server.New("127.0.0.1:0")
		assert.NoError(t, srv.Stop())
	})
}
