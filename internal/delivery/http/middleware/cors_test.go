package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name        string
		origins     []string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllow   string
		wantCreds   string
		wantMethods bool
	}{
		{"allowed origin", []string{"http://localhost:5173/"}, "http://localhost:5173", false, http.StatusOK, "http://localhost:5173", "true", false},
		{"unknown origin", []string{"http://localhost:5173"}, "http://evil.test", false, http.StatusOK, "", "", false},
		{"preflight allowed", []string{"http://localhost:5173"}, "http://localhost:5173", true, http.StatusNoContent, "http://localhost:5173", "true", true},
		{"preflight unknown origin", []string{"http://localhost:5173"}, "http://evil.test", true, http.StatusNoContent, "", "", false},
		{"wildcard without credentials", []string{"*"}, "http://any.test", false, http.StatusOK, "http://any.test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodGet
			if tt.preflight {
				method = http.MethodOptions
			}
			req := httptest.NewRequest(method, "/api/events", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rr := httptest.NewRecorder()

			CORS(tt.origins, ok).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantAllow, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rr.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, tt.wantMethods, rr.Header().Get("Access-Control-Allow-Methods") != "")
		})
	}
}
