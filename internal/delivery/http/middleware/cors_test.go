package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	allowed := []string{"https://app.example.com/", " http://localhost:3000 "}

	tests := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
		nextCalled  bool
	}{
		{"preflight allowed origin", http.MethodOptions, "https://app.example.com", true, http.StatusNoContent, "https://app.example.com", false},
		{"preflight unknown origin", http.MethodOptions, "https://evil.example.com", true, http.StatusNoContent, "", false},
		{"options without request method", http.MethodOptions, "https://app.example.com", false, http.StatusOK, "https://app.example.com", true},
		{"simple request allowed origin", http.MethodGet, "http://localhost:3000", false, http.StatusOK, "http://localhost:3000", true},
		{"simple request unknown origin", http.MethodGet, "https://evil.example.com", false, http.StatusOK, "", true},
		{"no origin", http.MethodGet, "", false, http.StatusOK, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tt.method, "http://test/events", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
			}
			rr := httptest.NewRecorder()

			CORS(allowed, next).ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.nextCalled, nextCalled)
			assert.Equal(t, tt.wantAllowed, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Origin", rr.Header().Get("Vary"))
			if tt.preflight && tt.wantAllowed != "" {
				assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PATCH")
				assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestCORS_AnyOrigin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodOptions, "http://test/events", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()

	CORS([]string{"*"}, next).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
	assert.Empty(t, rr.Header().Get("Vary"))
}
