package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/mw"
)

// Access selects the filters mounted in front of a route group.
type Access int

const (
	// Probe routes only check the client address.
	Probe Access = iota
	// Query routes also check the Host header.
	Query
	// Mutating routes also rate limit per client.
	Mutating
)

type Registrar func(r chi.Router, d deps.Deps)

type entry struct {
	access Access
	reg    Registrar
}

var registry []entry

// Register adds a registrar behind the filters of access.
func Register(access Access, reg Registrar) {
	registry = append(registry, entry{access: access, reg: reg})
}

// RegisterAll mounts every registrar. Called once from the router.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		r.Group(func(g chi.Router) {
			g.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
			if e.access >= Query {
				g.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
			}
			if e.access >= Mutating {
				g.Use(mw.RateLimit(mw.RateLimitConfig{
					Burst:           d.RateLimitBurst,
					RefillPerMinute: d.RateLimitPerMinute,
					MaxEntries:      1024,
					TrustProxy:      d.TrustProxy,
				}))
			}
			e.reg(g, d)
		})
	}
}
