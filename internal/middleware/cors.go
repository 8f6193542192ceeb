package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// corsMethods are the methods a preflight may be granted. Each preflight
// gets the subset the router actually serves for the requested path.
var corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete}

// corsRequestHeaders are the request headers the API reads.
var corsRequestHeaders = strings.Join([]string{"Authorization", "Content-Type", RequestIDHeader}, ", ")

const defaultCORSMaxAge = 10 * time.Minute

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to call the API from a browser.
	// Matching is case-insensitive; "*" allows any origin. Empty denies all.
	AllowedOrigins []string

	// MaxAge is how long browsers may cache a preflight. Default: 10 minutes.
	MaxAge time.Duration
}

// CORS returns a middleware that answers preflights and tags cross-origin
// responses. Bearer tokens travel in a header, so credentials are never allowed.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	anyOrigin := false
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin == "*" {
			anyOrigin = true
			continue
		}
		if origin != "" {
			origins[origin] = struct{}{}
		}
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAge
	}
	maxAgeStr := strconv.Itoa(int(maxAge / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			_, listed := origins[strings.ToLower(origin)]
			if !listed && !anyOrigin {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				// The browser withholds the response from the page.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)

			if !preflight {
				w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
				next.ServeHTTP(w, r)
				return
			}

			methods := routedMethods(r)
			if len(methods) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", corsRequestHeaders)
			w.Header().Set("Access-Control-Max-Age", maxAgeStr)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// routedMethods returns the corsMethods the chi router serves for r's path.
// Outside a chi router every method is offered.
func routedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return corsMethods
	}

	var methods []string
	for _, method := range corsMethods {
		if rctx.Routes.Match(chi.NewRouteContext(), method, r.URL.Path) {
			methods = append(methods, method)
		}
	}
	return methods
}
