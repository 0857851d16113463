package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/cachestore"
	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/index"
	"github.com/MrSnakeDoc/steamjump/internal/launcher"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// Launcher is the query facade used by the search and launch handlers.
type Launcher interface {
	Search(ctx context.Context, scope domain.Scope, text string) launcher.Response
	Launch(ctx context.Context, key string) (launcher.LaunchResult, error)
}

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time                // for testing, defaults to time.Now
	AllowedHosts       []string                        // Host headers allowed to reach /search and /launch
	AllowedCIDRS       []string                        // IPs allowed to access the server
	TrustProxy         bool                            // true if running behind a trusted reverse proxy
	RateLimitBurst     int                             // burst of launch/reload requests per client
	RateLimitPerMinute int                             // sustained launch/reload rate per client
	Launcher           Launcher                        // search and launch facade
	MemoryIndex        *index.MemoryIndex              // derived items of the last commit
	Store              *cachestore.Store               // cache document owner
	StoreLocation      string                          // file path or redis key of the cache document
	StorePing          func(ctx context.Context) error // nil when the store needs no connection
	APIEnabled         bool                            // Steam Web API source configured
	ReloadTrigger      chan struct{}                   // Channel to trigger a forced refresh
}
