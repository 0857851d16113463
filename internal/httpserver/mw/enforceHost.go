package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// EnforceHost allows requests only if r.Host matches one of the allowed hosts.
// Patterns are case-insensitive and support wildcards like "*.lan".
// A pattern without a port matches any port. If allowedHosts is empty,
// it acts as a passthrough.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	patterns := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		patterns = append(patterns, strings.ToLower(h))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(r.Host)
			for _, pattern := range patterns {
				if matchHost(host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn("request rejected by host filter",
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// matchHost checks if host matches pattern (supports wildcard *.example.com)
func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}

	// "localhost" also matches "localhost:8080"
	if !strings.Contains(pattern, ":") {
		if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.HasSuffix(host, "]") {
			host = host[:i]
		}
		if host == pattern {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return false
}
