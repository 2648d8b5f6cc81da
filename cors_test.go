package fastigo_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastigo-dev/fastigo"
)

func TestCORS_Headers(t *testing.T) {
	t.Parallel()

	t.Run("defaults_allow_everything", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New(fastigo.WithCORS(fastigo.CORSConfig{}))
		require.NoError(t, app.Get("/ping", okHandler("pong")))

		cap := dispatch(t, app, httpScope(http.MethodGet, "/ping"))
		assert.Equal(t, "*", cap.header(t, "Access-Control-Allow-Origin"))
		assert.Contains(t, cap.header(t, "Access-Control-Allow-Methods"), "GET")
		assert.Contains(t, cap.header(t, "Access-Control-Allow-Headers"), "Authorization")
		assert.Equal(t, "nosniff", cap.header(t, "X-Content-Type-Options"))
		assert.Equal(t, "SAMEORIGIN", cap.header(t, "X-Frame-Options"))
	})

	t.Run("origin_list_joined", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New(fastigo.WithCORS(fastigo.CORSConfig{
			Origins: []string{"https://a.example.com", "https://b.example.com"},
		}))
		require.NoError(t, app.Get("/ping", okHandler("pong")))

		cap := dispatch(t, app, httpScope(http.MethodGet, "/ping"))
		assert.Equal(t, "https://a.example.com, https://b.example.com", cap.header(t, "Access-Control-Allow-Origin"))
	})

	t.Run("credentials_ignored_with_wildcard", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New(fastigo.WithCORS(fastigo.CORSConfig{AllowCredentials: true}))
		require.NoError(t, app.Get("/ping", okHandler("pong")))

		cap := dispatch(t, app, httpScope(http.MethodGet, "/ping"))
		assert.Empty(t, cap.header(t, "Access-Control-Allow-Credentials"))
	})

	t.Run("credentials_with_pinned_origin", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New(fastigo.WithCORS(fastigo.CORSConfig{
			Origins:          []string{"https://app.example.com"},
			AllowCredentials: true,
			MaxAge:           3600,
		}))
		require.NoError(t, app.Get("/ping", okHandler("pong")))

		cap := dispatch(t, app, httpScope(http.MethodGet, "/ping"))
		assert.Equal(t, "true", cap.header(t, "Access-Control-Allow-Credentials"))
		assert.Equal(t, "3600", cap.header(t, "Access-Control-Max-Age"))
	})

	t.Run("csp_and_custom_headers", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New(fastigo.WithCORS(fastigo.CORSConfig{
			ContentSecurityPolicy: []string{"default-src 'self'", "img-src *"},
			CustomHeaders:         map[string]string{"X-Powered-By": "fastigo"},
		}))
		require.NoError(t, app.Get("/ping", okHandler("pong")))

		cap := dispatch(t, app, httpScope(http.MethodGet, "/ping"))
		assert.Equal(t, "default-src 'self'; img-src *", cap.header(t, "Content-Security-Policy"))
		assert.Equal(t, "fastigo", cap.header(t, "X-Powered-By"))
	})

	t.Run("headers_attach_to_preflight", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New(fastigo.WithCORS(fastigo.CORSConfig{}))
		require.NoError(t, app.Get("/ping", okHandler("pong")))

		cap := dispatch(t, app, httpScope(http.MethodOptions, "/ping"))
		assert.Equal(t, http.StatusOK, cap.start(t).Status)
		assert.Equal(t, "*", cap.header(t, "Access-Control-Allow-Origin"))
	})

	t.Run("headers_attach_to_errors", func(t *testing.T) {
		t.Parallel()

		app := fastigo.New(fastigo.WithCORS(fastigo.CORSConfig{}))

		cap := dispatch(t, app, httpScope(http.MethodGet, "/missing"))
		assert.Equal(t, http.StatusNotFound, cap.start(t).Status)
		assert.Equal(t, "*", cap.header(t, "Access-Control-Allow-Origin"))
	})
}
