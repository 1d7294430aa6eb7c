package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin request handling.
type CORSConfig struct {
	// AllowOrigins lists origins permitted to call the API. Empty, or a
	// single "*", allows every origin.
	AllowOrigins []string

	// AllowMethods lists permitted HTTP methods. Defaults to
	// "GET, POST, PUT, DELETE, OPTIONS" when empty.
	AllowMethods []string

	// AllowHeaders lists permitted request headers. When empty, preflight
	// responses echo back Access-Control-Request-Headers.
	AllowHeaders []string

	// ExposeHeaders lists response headers the browser may read.
	ExposeHeaders []string

	// AllowCredentials lets browsers send cookies cross-origin. The wildcard
	// origin is forbidden with credentials, so enabling this forces
	// per-origin matching.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header, negative sends "0".
	MaxAge int
}

// CORS returns a middleware implementing Cross-Origin Resource Sharing.
// Origins are matched case-insensitively and echoed back in the case given
// in the config. Responses vary on Origin so shared caches never serve one
// origin's CORS headers to another.
func CORS(cfg CORSConfig) Middleware {
	h := newCORSHeaders(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Same-origin request. Still vary on Origin so caches keep
			// cross-origin responses separate.
			if origin == "" {
				if !h.wildcard {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.preflight(w, r, origin)
				return
			}

			if !h.wildcard {
				w.Header().Add("Vary", "Origin")
			}
			if allow := h.originFor(origin); allow != "" {
				w.Header().Set("Access-Control-Allow-Origin", allow)
				if h.credentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if h.expose != "" {
					w.Header().Set("Access-Control-Expose-Headers", h.expose)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// corsHeaders holds the precomputed header values shared by all requests.
type corsHeaders struct {
	wildcard    bool
	echoAll     bool
	origins     map[string]string // lowercase -> configured case
	methods     string
	headers     string
	expose      string
	maxAge      string
	credentials bool
}

func newCORSHeaders(cfg CORSConfig) *corsHeaders {
	h := &corsHeaders{
		wildcard:    len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			h.wildcard = true
			break
		}
		h.origins[strings.ToLower(o)] = o
	}
	if h.credentials && h.wildcard {
		// Credentials forbid the literal wildcard, so echo the caller's
		// origin instead of "*".
		h.wildcard = false
		h.echoAll = true
	}
	if h.methods == "" {
		h.methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		h.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		h.maxAge = "0"
	}
	return h
}

func (h *corsHeaders) originFor(origin string) string {
	if h.wildcard {
		return "*"
	}
	if h.echoAll {
		return origin
	}
	return h.origins[strings.ToLower(origin)]
}

func (h *corsHeaders) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	w.Header().Add("Vary", "Origin")
	w.Header().Add("Vary", "Access-Control-Request-Method")
	w.Header().Add("Vary", "Access-Control-Request-Headers")

	allow := h.originFor(origin)
	if allow == "" {
		// Unknown origin: 204 without CORS headers, the browser rejects it.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allow)
	w.Header().Set("Access-Control-Allow-Methods", h.methods)
	if h.headers != "" {
		w.Header().Set("Access-Control-Allow-Headers", h.headers)
	} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
		w.Header().Set("Access-Control-Allow-Headers", rh)
	}
	if h.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if h.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", h.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}
