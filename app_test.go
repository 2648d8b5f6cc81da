package fastigo_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastigo-dev/fastigo"
)

func TestApp_Registration(t *testing.T) {
	t.Parallel()

	noop := func(ctx context.Context, req *fastigo.Request, rep *fastigo.Reply) error {
		return rep.Send(ctx)
	}

	t.Run("accepts_valid_paths", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		for _, path := range []string{"/", "/users", "/users/:id", "/users/:id/posts/:postId", "/_internal/v2"} {
			assert.NoError(t, app.Get(path, noop), path)
		}
	})

	t.Run("rejects_malformed_paths", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		for _, path := range []string{"", "users", "/users/", "//users", "/users/:", "/us ers", "/users?id=1"} {
			assert.ErrorIs(t, app.Get(path, noop), fastigo.ErrInvalidPath, path)
		}
	})

	t.Run("rejects_numeric_param_name", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		assert.ErrorIs(t, app.Get("/users/:1id", noop), fastigo.ErrInvalidPath)
	})

	t.Run("rejects_duplicate_param_names", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		assert.ErrorIs(t, app.Get("/users/:id/posts/:id", noop), fastigo.ErrInvalidPath)
	})

	t.Run("rejects_duplicate_route", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		require.NoError(t, app.Get("/users", noop))
		assert.ErrorIs(t, app.Get("/users", noop), fastigo.ErrDuplicateRoute)
		assert.NoError(t, app.Post("/users", noop), "same path under another method is fine")
	})

	t.Run("literal_sibling_of_param_is_not_duplicate", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		require.NoError(t, app.Get("/users/:id", noop))
		assert.NoError(t, app.Get("/users/me", noop))
		assert.ErrorIs(t, app.Get("/users/:id", noop), fastigo.ErrDuplicateRoute)
	})

	t.Run("rejects_conflicting_param_siblings", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		require.NoError(t, app.Get("/users/:id", noop))
		assert.ErrorIs(t, app.Get("/users/:name", noop), fastigo.ErrAmbiguousParam)
	})

	t.Run("rejects_unknown_method", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		assert.ErrorIs(t, app.Handle("FETCH", "/users", noop), fastigo.ErrUnknownMethod)
	})

	t.Run("rejects_nil_handler", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		assert.ErrorIs(t, app.Get("/users", nil), fastigo.ErrNilHandler)
	})

	t.Run("methods_lists_registered_plus_options", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		require.NoError(t, app.Get("/users", noop))
		require.NoError(t, app.Delete("/users", noop))

		assert.Equal(t, []string{"DELETE", "GET", "OPTIONS"}, app.Methods("/users"))
		assert.Nil(t, app.Methods("/ghosts"))
	})

	t.Run("print_routes_draws_tree", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		require.NoError(t, app.Get("/users/:id", noop))
		require.NoError(t, app.Post("/users", noop))

		var sb strings.Builder
		app.PrintRoutes(&sb)
		out := sb.String()
		assert.Contains(t, out, "└── users (POST)")
		assert.Contains(t, out, ":id (GET)")
	})
}

func TestApp_HookSnapshots(t *testing.T) {
	t.Parallel()

	t.Run("late_hooks_do_not_reach_existing_routes", func(t *testing.T) {
		t.Parallel()

		var calls []string
		app := fastigo.New()
		require.NoError(t, app.AddHook(fastigo.OnRequest, fastigo.Hook(func(ctx context.Context, req *fastigo.Request, rep *fastigo.Reply) error {
			calls = append(calls, "early:"+req.Path())
			return nil
		})))
		require.NoError(t, app.Get("/old", okHandler("old")))

		require.NoError(t, app.AddHook(fastigo.OnRequest, fastigo.Hook(func(ctx context.Context, req *fastigo.Request, rep *fastigo.Reply) error {
			calls = append(calls, "late:"+req.Path())
			return nil
		})))
		require.NoError(t, app.Get("/new", okHandler("new")))

		dispatch(t, app, httpScope(http.MethodGet, "/old"))
		dispatch(t, app, httpScope(http.MethodGet, "/new"))
		assert.Equal(t, []string{"early:/old", "early:/new", "late:/new"}, calls)
	})

	t.Run("route_local_hooks_append_after_ambient", func(t *testing.T) {
		t.Parallel()

		var calls []string
		app := fastigo.New()
		require.NoError(t, app.AddHook(fastigo.PreHandler, fastigo.Hook(func(ctx context.Context, req *fastigo.Request, rep *fastigo.Reply) error {
			calls = append(calls, "ambient")
			return nil
		})))
		require.NoError(t, app.Get("/x", okHandler("x"), fastigo.WithPreHandlerHook(func(ctx context.Context, req *fastigo.Request, rep *fastigo.Reply) error {
			calls = append(calls, "local")
			return nil
		})))

		dispatch(t, app, httpScope(http.MethodGet, "/x"))
		assert.Equal(t, []string{"ambient", "local"}, calls)
	})

	t.Run("rejects_mismatched_hook_signature", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		err := app.AddHook(fastigo.OnResponse, fastigo.Hook(func(ctx context.Context, req *fastigo.Request, rep *fastigo.Reply) error {
			return nil
		}))
		assert.ErrorIs(t, err, fastigo.ErrInvalidHook)
	})
}

func TestApp_Decorators(t *testing.T) {
	t.Parallel()

	t.Run("registers_and_reads_back", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		require.NoError(t, app.Decorate("version", "1.4.0"))

		assert.True(t, app.HasDecorator("version"))
		v, ok := app.Decorator("version")
		require.True(t, ok)
		assert.Equal(t, "1.4.0", v)
	})

	t.Run("typed_getter", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		require.NoError(t, app.Decorate("maxSessions", 10))

		n, ok := fastigo.DecoratorValue[int](app, "maxSessions")
		require.True(t, ok)
		assert.Equal(t, 10, n)

		_, ok = fastigo.DecoratorValue[string](app, "maxSessions")
		assert.False(t, ok, "wrong type must not match")

		_, ok = fastigo.DecoratorValue[int](app, "missing")
		assert.False(t, ok)
	})

	t.Run("rejects_duplicate_key", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		require.NoError(t, app.Decorate("db", "primary"))
		assert.ErrorIs(t, app.Decorate("db", "replica"), fastigo.ErrDecoratorExists)
	})

	t.Run("visible_from_request", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		require.NoError(t, app.Decorate("greeting", "hello"))
		require.NoError(t, app.Get("/greet", func(ctx context.Context, req *fastigo.Request, rep *fastigo.Reply) error {
			v, _ := req.Decorator("greeting")
			return rep.Text(v.(string)).Send(ctx)
		}))

		cap := dispatch(t, app, httpScope(http.MethodGet, "/greet"))
		assert.Equal(t, "hello", string(cap.body()))
	})
}

func TestApp_Plugins(t *testing.T) {
	t.Parallel()

	t.Run("prefix_scopes_routes", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		err := app.Register(func(ctx context.Context, scoped *fastigo.App) error {
			return scoped.Get("/users", okHandler("plugin users"))
		}, fastigo.WithPrefix("/api/v1"))
		require.NoError(t, err)

		cap := dispatch(t, app, httpScope(http.MethodGet, "/api/v1/users"))
		assert.Equal(t, "plugin users", string(cap.body()))

		cap = dispatch(t, app, httpScope(http.MethodGet, "/users"))
		assert.Equal(t, http.StatusNotFound, cap.start(t).Status)
	})

	t.Run("state_merges_back_into_parent", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		err := app.Register(func(ctx context.Context, scoped *fastigo.App) error {
			return scoped.Decorate("pluginKey", 7)
		})
		require.NoError(t, err)
		assert.True(t, app.HasDecorator("pluginKey"))
	})

	t.Run("plugin_error_propagates", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		err := app.Register(func(ctx context.Context, scoped *fastigo.App) error {
			return scoped.Get("bad path", okHandler("x"))
		})
		assert.ErrorIs(t, err, fastigo.ErrInvalidPath)
	})

	t.Run("setup_timeout_is_fatal", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		err := app.Register(func(ctx context.Context, scoped *fastigo.App) error {
			<-ctx.Done()
			return ctx.Err()
		}, fastigo.WithSetupTimeout(20*time.Millisecond))
		assert.ErrorIs(t, err, fastigo.ErrPluginTimeout)
	})

	t.Run("rejects_nil_plugin", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		assert.ErrorIs(t, app.Register(nil), fastigo.ErrNilPlugin)
	})

	t.Run("rejects_invalid_prefix", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New()
		err := app.Register(func(ctx context.Context, scoped *fastigo.App) error {
			return nil
		}, fastigo.WithPrefix("api"))
		assert.ErrorIs(t, err, fastigo.ErrInvalidPath)
	})
}
