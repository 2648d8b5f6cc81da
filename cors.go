package fastigo

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/fastigo-dev/fastigo/transport"
)

// CORSConfig controls the cross-origin and security headers attached to
// every response. Zero-value fields fall back to permissive defaults
// suitable for development; production setups should pin Origins.
type CORSConfig struct {
	// Origins allowed to call the application. Empty means "*".
	Origins []string

	// Methods advertised to preflights. Empty means the full method set.
	Methods []string

	// AllowHeaders advertised to preflights. Empty means a common set
	// including Authorization and Content-Type.
	AllowHeaders []string

	// ExposeHeaders lists response headers readable by browser scripts.
	ExposeHeaders []string

	// AllowCredentials advertises cookie and authorization support.
	// Ignored with wildcard origins, which must not carry credentials.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int

	// ContentSecurityPolicy directives, joined with "; ".
	ContentSecurityPolicy []string

	// CustomHeaders are attached verbatim to every response.
	CustomHeaders map[string]string
}

var defaultAllowHeaders = []string{
	"Accept",
	"Accept-Language",
	"Content-Language",
	"Content-Type",
	"Origin",
	"Authorization",
}

// headers renders the config into the ordered header list attached to
// each response.start frame. Alongside the CORS set it emits the
// browser-hardening headers (nosniff, frame and XSS protection, referrer
// policy) so every response carries them.
func (c CORSConfig) headers() []transport.Header {
	origins := c.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := c.Methods
	if len(methods) == 0 {
		methods = []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodDelete,
		}
	}
	allowHeaders := c.AllowHeaders
	if len(allowHeaders) == 0 {
		allowHeaders = defaultAllowHeaders
	}

	origin := strings.Join(origins, ", ")
	out := []transport.Header{
		{Key: "Access-Control-Allow-Origin", Value: origin},
		{Key: "Access-Control-Allow-Methods", Value: strings.Join(methods, ", ")},
		{Key: "Access-Control-Allow-Headers", Value: strings.Join(allowHeaders, ", ")},
	}
	if len(c.ExposeHeaders) > 0 {
		out = append(out, transport.Header{Key: "Access-Control-Expose-Headers", Value: strings.Join(c.ExposeHeaders, ", ")})
	}
	if c.AllowCredentials && origin != "*" {
		out = append(out, transport.Header{Key: "Access-Control-Allow-Credentials", Value: "true"})
	}
	if c.MaxAge > 0 {
		out = append(out, transport.Header{Key: "Access-Control-Max-Age", Value: strconv.Itoa(c.MaxAge)})
	}

	out = append(out,
		transport.Header{Key: "X-XSS-Protection", Value: "1; mode=block"},
		transport.Header{Key: "X-Content-Type-Options", Value: "nosniff"},
		transport.Header{Key: "X-Frame-Options", Value: "SAMEORIGIN"},
		transport.Header{Key: "Referrer-Policy", Value: "strict-origin-when-cross-origin"},
	)
	if len(c.ContentSecurityPolicy) > 0 {
		out = append(out, transport.Header{Key: "Content-Security-Policy", Value: strings.Join(c.ContentSecurityPolicy, "; ")})
	}
	keys := make([]string, 0, len(c.CustomHeaders))
	for k := range c.CustomHeaders {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		out = append(out, transport.Header{Key: k, Value: c.CustomHeaders[k]})
	}
	return out
}
