package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type, Accept"
	corsMaxAge       = "600"
)

// CORS answers preflight requests and adds CORS headers for the configured origins.
// An origin of "*" allows any origin; credentials are only advertised for explicit ones.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			allowAny = true
		default:
			allowed[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		hdr := w.Header()
		hdr.Add("Vary", "Origin")

		explicit := allowed[origin]
		if origin != "" && (explicit || allowAny) {
			hdr.Set("Access-Control-Allow-Origin", origin)
			if explicit {
				hdr.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if hdr.Get("Access-Control-Allow-Origin") != "" {
				hdr.Set("Access-Control-Allow-Methods", corsAllowMethods)
				hdr.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				hdr.Set("Access-Control-Max-Age", corsMaxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
