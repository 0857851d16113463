package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/steamjump/internal/cachestore"
	"github.com/MrSnakeDoc/steamjump/internal/config"
	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/index"
	"github.com/MrSnakeDoc/steamjump/internal/launcher"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
	"github.com/MrSnakeDoc/steamjump/internal/navigation"
	"github.com/MrSnakeDoc/steamjump/internal/redis"
	"github.com/MrSnakeDoc/steamjump/internal/scheduler"
	"github.com/MrSnakeDoc/steamjump/internal/search"
	"github.com/MrSnakeDoc/steamjump/internal/sources/steamapi"
	"github.com/MrSnakeDoc/steamjump/internal/sources/steamfs"
	filestore "github.com/MrSnakeDoc/steamjump/internal/store/file"
	redisstore "github.com/MrSnakeDoc/steamjump/internal/store/redis"
	"github.com/MrSnakeDoc/steamjump/internal/version"
)

// App holds the wired components. The same graph serves one-shot CLI
// calls and the long running server.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	redisClient *goredis.Client
	redisStore  *redisstore.Store
	store       *cachestore.Store
	memIndex    *index.MemoryIndex
	refresher   *scheduler.Refresher
	launcher    *launcher.Launcher
}

// Options adjusts the wiring for the calling mode.
type Options struct {
	// RefreshOnQuery makes every search refresh stale sources first.
	RefreshOnQuery bool
}

// ServeOptions is the wiring of the long running server. Queries still
// check the refresh intervals; the background loop only warms the cache.
var ServeOptions = Options{RefreshOnQuery: true}

// New wires every component and loads the persisted cache.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	a := &App{cfg: cfg, logger: log}

	persister, err := a.persister(ctx)
	if err != nil {
		return nil, err
	}

	a.store = cachestore.New(persister, cachestore.Options{
		Indent:      cfg.CacheIndent,
		LockTimeout: cfg.LockTimeout,
		Blacklists: cachestore.Blacklists{
			Apps:    cfg.AppBlacklist,
			Friends: cfg.FriendBlacklist,
		},
	}, log)

	a.memIndex = index.NewMemoryIndex(navigation.NewDeriver(navigation.Options{
		Dependent:    cfg.DependentNavs,
		FriendAction: cfg.FriendDefaultAction,
		RealInfo:     cfg.RealInfo,
	}))
	a.store.OnCommit(a.memIndex.Rebuild)

	if err := a.store.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	engine := search.NewEngine(a.memIndex, search.Options{
		MaxResults: cfg.MaxResults,
		Weights: domain.Weights{
			Recency:         cfg.RecencyWeight,
			RecencyHalfLife: cfg.RecencyHalfLife,
			Frequency:       cfg.FrequencyWeight,
		},
		AppBlacklist:    cfg.AppBlacklist,
		FriendBlacklist: cfg.FriendBlacklist,
		ShowScores:      cfg.ShowScores,
	})

	files := steamfs.NewReader(steamfs.Options{
		Folders:           cfg.SteamFolders,
		UserdataID:        cfg.UserdataID,
		DiscoverLibraries: cfg.DiscoverLibraries,
	}, log)

	var remote scheduler.Remote
	if cfg.APIEnabled() {
		remote = steamapi.NewClient(steamapi.Options{
			APIKey:           cfg.APIKey,
			APIBaseURL:       cfg.APIBaseURL,
			CommunityBaseURL: cfg.CommunityBaseURL,
			Retries:          cfg.APIRetries,
			Backoff:          cfg.APIRetryBackoff,
		}, log)
	} else {
		log.Info("steam web api disabled, friends and owned games are not refreshed")
	}

	a.refresher = scheduler.NewRefresher(a.store, files, remote, scheduler.RefreshOptions{
		FileInterval: cfg.FileInterval,
		APIInterval:  cfg.APIInterval,
		APITimeout:   cfg.APITimeout,
		Username:     cfg.Username,
		SteamID64:    cfg.SteamID64,
	}, log)

	a.launcher = launcher.New(a.store, a.memIndex, engine, a.refresher, launcher.Options{
		RefreshOnQuery: opts.RefreshOnQuery,
	}, log)

	return a, nil
}

func (a *App) persister(ctx context.Context) (cachestore.Persister, error) {
	if a.cfg.CacheStore != config.StoreRedis {
		a.logger.Debug("using file cache store", logger.String("path", a.cfg.CacheFile))
		return filestore.NewStore(a.cfg.CacheFile, a.cfg.LockStaleAfter, a.logger), nil
	}

	client, err := redis.New(ctx, redis.OptionsFromConfig(a.cfg), a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.redisClient = client
	a.redisStore = redisstore.NewStore(client, a.cfg.RedisKey, a.cfg.LockStaleAfter)
	return a.redisStore, nil
}

// Launcher returns the query facade.
func (a *App) Launcher() *launcher.Launcher { return a.launcher }

// Close releases the redis connection, if any.
func (a *App) Close() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
		return
	}
	a.logger.Debug("redis closed cleanly")
}

// Serve runs the background jobs and the HTTP server until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Infof("🚀 Starting steamjump v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	reloadTrigger := make(chan struct{}, 1)

	background := scheduler.NewBackground(a.refresher, a.logger, a.cfg.RefreshInterval, reloadTrigger)
	background.Start(ctx)
	a.logger.Info("background refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	var gc *scheduler.GarbageCollector
	if a.cfg.NavGCInterval > 0 {
		gc = scheduler.NewGarbageCollector(a.store, a.logger, a.cfg.NavGCInterval, a.cfg.NavGCThreshold)
		gc.Start(ctx)
		a.logger.Info("navigation garbage collector started",
			logger.Duration("interval", a.cfg.NavGCInterval))
	}

	server := httpserver.New(a.cfg, a.logger, a.deps(reloadTrigger))

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	background.Stop()
	if gc != nil {
		gc.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if runErr == nil {
		a.logger.Info("✅ steamjump stopped cleanly")
	}
	return runErr
}

// Handler returns the HTTP router without starting any background job.
func (a *App) Handler(reloadTrigger chan struct{}) http.Handler {
	return httpserver.NewRouter(a.logger, a.deps(reloadTrigger), a.cfg.APITimeout+5*time.Second)
}

func (a *App) deps(reloadTrigger chan struct{}) deps.Deps {
	d := deps.Deps{
		Logger:             a.logger,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       a.cfg.AllowedHosts,
		AllowedCIDRS:       a.cfg.AllowedCIDRS,
		TrustProxy:         a.cfg.TrustProxy,
		RateLimitBurst:     a.cfg.RateLimitBurst,
		RateLimitPerMinute: a.cfg.RateLimitPerMinute,
		Launcher:           a.launcher,
		MemoryIndex:        a.memIndex,
		Store:              a.store,
		APIEnabled:         a.refresher.APIEnabled(),
		ReloadTrigger:      reloadTrigger,
	}
	if a.redisStore != nil {
		d.StoreLocation = a.redisStore.Describe()
		d.StorePing = a.redisStore.Ping
	} else {
		d.StoreLocation = a.cfg.CacheFile
	}
	return d
}
