package middleware

import (
	"net/http"
	"strings"
)

// CORS allows browser calls from the given origins. "*" allows any origin and
// an entry like "https://*.example.com" allows every subdomain of example.com.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	type wildcard struct{ prefix, suffix string }

	exact := make(map[string]bool, len(allowedOrigins))
	var wildcards []wildcard
	allowAll := false
	for _, o := range allowedOrigins {
		switch {
		case o == "*":
			allowAll = true
		case strings.Contains(o, "://*."):
			scheme, domain, _ := strings.Cut(o, "://*.")
			wildcards = append(wildcards, wildcard{prefix: scheme + "://", suffix: "." + domain})
		default:
			exact[o] = true
		}
	}

	allowed := func(origin string) bool {
		if allowAll || exact[origin] {
			return true
		}
		for _, wc := range wildcards {
			if strings.HasPrefix(origin, wc.prefix) && strings.HasSuffix(origin, wc.suffix) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			origin := r.Header.Get("Origin")
			if origin == "" || !allowed(origin) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id, Retry-After")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
				w.Header().Set("Access-Control-Max-Age", "3600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
