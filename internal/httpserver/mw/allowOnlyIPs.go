package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/steamjump/internal/logger"
	"github.com/MrSnakeDoc/steamjump/internal/utils"
)

// AllowOnlyCIDRS rejects clients outside the allowed addresses and
// prefixes. An empty list disables the filter.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m, rejected := utils.NewAddrMatcher(allowed)
	if len(rejected) > 0 {
		log.Warn("ignoring unparsable allowed CIDR entries", logger.Strings("entries", rejected))
	}
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := utils.ClientIP(r, trustProxy)
			if !m.Allow(addr) {
				log.Warn("request rejected by address filter",
					logger.String("client_ip", addr.String()),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
