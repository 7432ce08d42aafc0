package middleware

import (
	"net"
	"net/http"
	"strings"

	"eventhub/internal/domain"
)

// ClientIP stores the caller address on the request context. The first X-Forwarded-For
// hop wins over RemoteAddr.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := remoteIP(r)
		next.ServeHTTP(w, r.WithContext(domain.WithClientIP(r.Context(), ip)))
	})
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
