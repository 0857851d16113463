package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Visibility of navigations derived from apps and friends.
const (
	NavigationsAll     = "all"
	NavigationsApps    = "apps"
	NavigationsFriends = "friends"
	NavigationsNone    = "none"
)

// Default action when a friend is picked.
const (
	FriendActionChat    = "chat"
	FriendActionProfile = "profile"
)

// Which friend details are shown in result descriptions.
const (
	RealInfoAll      = "all"
	RealInfoName     = "name"
	RealInfoLocation = "location"
	RealInfoNone     = "none"
)

// Cache persister kinds.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Steam sources
	SteamFolders      []string // Steam roots, the first one is the primary
	UserdataID        string   // optional userdata directory name
	DiscoverLibraries bool     // follow libraryfolders.vdf of the primary folder
	APIKey            string   // Steam Web API key (empty = API source disabled)
	Username          string   // vanity name resolved to a SteamID64
	SteamID64         string   // takes precedence over Username
	APIBaseURL        string   // ex: https://api.steampowered.com
	CommunityBaseURL  string   // ex: https://steamcommunity.com

	// Refresh
	FileInterval    time.Duration // TTL of the file source (default: 1m)
	APIInterval     time.Duration // TTL of the API source (default: 1d)
	APITimeout      time.Duration // bound on the whole API step (default: 20s)
	APIRetries      int           // retries per request (default: 2)
	APIRetryBackoff time.Duration // first backoff, doubled per retry (default: 500ms)

	// Search
	MaxResults          int
	AppBlacklist        []string
	FriendBlacklist     []string
	DependentNavs       string // all | apps | friends | none
	FriendDefaultAction string // chat | profile
	RealInfo            string // all | name | location | none
	ShowScores          bool   // attach score breakdowns to results
	RecencyWeight       float64
	RecencyHalfLife     time.Duration
	FrequencyWeight     float64

	// Cache
	CacheStore     string        // file | redis
	CacheFile      string        // path of the JSON document
	CacheIndent    int           // 0 = compact
	LockTimeout    time.Duration // max wait for the writer lock
	LockStaleAfter time.Duration // a lock older than this is broken

	// Background jobs (serve only)
	RefreshInterval time.Duration // 0 disables the background refresher
	NavGCInterval   time.Duration
	NavGCThreshold  time.Duration // launch records older than this may be pruned

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisKey            string        // document key
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	AllowedHosts []string // optional, Host headers accepted by /search and /launch (e.g. "localhost:8080")
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	RateLimitBurst     int // launch/reload requests allowed in a burst per client
	RateLimitPerMinute int // sustained launch/reload requests per client per minute
}

// APIEnabled reports whether the remote source can run at all.
func (c *Config) APIEnabled() bool {
	return c.APIKey != "" && (c.SteamID64 != "" || c.Username != "")
}

// source resolves a key from the environment first, then from the
// optional YAML overlay.
type source struct {
	overlay map[string]string
}

// Load reads the configuration. Invalid values panic, as nothing useful
// can run on a half-valid configuration.
func Load() *Config {
	src := &source{overlay: loadOverlay(os.Getenv("STEAMJUMP_CONFIG_FILE"))}
	return src.load()
}

func (s *source) load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      s.getenv("STEAMJUMP_LISTEN_PORT", "127.0.0.1:8080"),
		ShutdownTimeout: s.mustDuration("STEAMJUMP_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  s.getenv("STEAMJUMP_LOG_LEVEL", "info"),
		PrettyLog: s.mustBool("STEAMJUMP_PRETTY_LOG", true),

		// Steam sources
		SteamFolders:      splitAndTrim(s.getenv("STEAMJUMP_STEAM_FOLDERS", "~/.local/share/Steam")),
		UserdataID:        s.getenv("STEAMJUMP_STEAM_USERDATA_ID", ""),
		DiscoverLibraries: s.mustBool("STEAMJUMP_DISCOVER_LIBRARIES", true),
		APIKey:            s.getenv("STEAMJUMP_STEAM_API_KEY", ""),
		Username:          s.getenv("STEAMJUMP_STEAM_USERNAME", ""),
		SteamID64:         s.getenv("STEAMJUMP_STEAMID64", ""),
		APIBaseURL:        strings.TrimRight(s.getenv("STEAMJUMP_API_BASE_URL", "https://api.steampowered.com"), "/"),
		CommunityBaseURL:  strings.TrimRight(s.getenv("STEAMJUMP_COMMUNITY_BASE_URL", "https://steamcommunity.com"), "/"),

		// Refresh
		FileInterval:    s.mustDuration("STEAMJUMP_FILE_INTERVAL", time.Minute),
		APIInterval:     s.mustDuration("STEAMJUMP_API_INTERVAL", 24*time.Hour),
		APITimeout:      s.mustDuration("STEAMJUMP_API_TIMEOUT", 20*time.Second),
		APIRetries:      s.getenvInt("STEAMJUMP_API_RETRIES", 2),
		APIRetryBackoff: s.mustDuration("STEAMJUMP_API_RETRY_BACKOFF", 500*time.Millisecond),

		// Search
		MaxResults:          s.getenvInt("STEAMJUMP_MAX_RESULTS", 10),
		AppBlacklist:        splitAndTrim(s.getenv("STEAMJUMP_APP_BLACKLIST", "")),
		FriendBlacklist:     splitAndTrim(s.getenv("STEAMJUMP_FRIEND_BLACKLIST", "")),
		DependentNavs:       s.mustEnum("STEAMJUMP_DEPENDENT_NAVIGATIONS", NavigationsAll, NavigationsAll, NavigationsApps, NavigationsFriends, NavigationsNone),
		FriendDefaultAction: s.mustEnum("STEAMJUMP_FRIEND_ACTION", FriendActionChat, FriendActionChat, FriendActionProfile),
		RealInfo:            s.mustEnum("STEAMJUMP_REAL_INFO", RealInfoAll, RealInfoAll, RealInfoName, RealInfoLocation, RealInfoNone),
		ShowScores:          s.mustBool("STEAMJUMP_SHOW_SCORES", false),
		RecencyWeight:       s.getenvFloat("STEAMJUMP_RECENCY_WEIGHT", 20),
		RecencyHalfLife:     s.mustDuration("STEAMJUMP_RECENCY_HALF_LIFE", 7*24*time.Hour),
		FrequencyWeight:     s.getenvFloat("STEAMJUMP_FREQUENCY_WEIGHT", 15),

		// Cache
		CacheStore:     s.mustEnum("STEAMJUMP_CACHE_STORE", StoreFile, StoreFile, StoreRedis),
		CacheFile:      s.getenv("STEAMJUMP_CACHE_FILE", defaultCacheFile()),
		CacheIndent:    s.getenvInt("STEAMJUMP_CACHE_INDENT", 0),
		LockTimeout:    s.mustDuration("STEAMJUMP_LOCK_TIMEOUT", 10*time.Second),
		LockStaleAfter: s.mustDuration("STEAMJUMP_LOCK_STALE_AFTER", 2*time.Minute),

		// Background jobs
		RefreshInterval: s.mustDuration("STEAMJUMP_REFRESH_INTERVAL", 5*time.Minute),
		NavGCInterval:   s.mustDuration("STEAMJUMP_NAV_GC_INTERVAL", 24*time.Hour),
		NavGCThreshold:  s.mustDuration("STEAMJUMP_NAV_GC_THRESHOLD", 30*24*time.Hour),

		// Redis settings
		RedisAddr:           s.getenv("STEAMJUMP_REDIS_ADDR", "localhost:6379"),
		RedisUser:           s.getenv("STEAMJUMP_REDIS_USERNAME", ""),
		RedisPassword:       s.getenv("STEAMJUMP_REDIS_PASSWORD", ""),
		RedisDB:             s.getenvInt("STEAMJUMP_REDIS_DB", 0),
		RedisKey:            s.getenv("STEAMJUMP_REDIS_KEY", "steamjump:cache"),
		RedisDT:             s.mustDuration("STEAMJUMP_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             s.mustDuration("STEAMJUMP_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             s.mustDuration("STEAMJUMP_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        s.mustDuration("STEAMJUMP_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    s.mustDuration("STEAMJUMP_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       s.getenvInt("STEAMJUMP_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: s.mustDuration("STEAMJUMP_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  s.mustDuration("STEAMJUMP_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  s.getenvInt("STEAMJUMP_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedCIDRS: splitAndTrim(s.getenv("STEAMJUMP_ALLOWED_CIDRS", "")),
		AllowedHosts: splitAndTrim(s.getenv("STEAMJUMP_ALLOWED_HOSTS", "")),
		TrustProxy:   s.mustBool("STEAMJUMP_TRUST_PROXY", false),

		RateLimitBurst:     s.getenvInt("STEAMJUMP_RATE_LIMIT_BURST", 20),
		RateLimitPerMinute: s.getenvInt("STEAMJUMP_RATE_LIMIT_PER_MINUTE", 120),
	}

	if cfg.MaxResults < 1 {
		panic(fmt.Sprintf("❌ FATAL: STEAMJUMP_MAX_RESULTS must be at least 1, got %d", cfg.MaxResults))
	}
	if len(cfg.SteamFolders) == 0 {
		panic("❌ FATAL: STEAMJUMP_STEAM_FOLDERS must name at least one folder")
	}
	if cfg.CacheStore == StoreRedis && cfg.RedisAddr == "" {
		panic("❌ FATAL: STEAMJUMP_REDIS_ADDR is required when STEAMJUMP_CACHE_STORE=redis")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.APIKey != "" {
			cfgCopy.APIKey = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// loadOverlay reads a flat YAML mapping. Keys are the variable names
// without the STEAMJUMP_ prefix, in any case ("file_interval: 1d").
// Lists may be written as YAML sequences.
func loadOverlay(path string) map[string]string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: cannot read config file %s: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		panic(fmt.Sprintf("❌ FATAL: invalid config file %s: %v", path, err))
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		key := "STEAMJUMP_" + strings.ToUpper(strings.TrimPrefix(strings.ToUpper(k), "STEAMJUMP_"))
		switch val := v.(type) {
		case nil:
			continue
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			out[key] = strings.Join(parts, ",")
		default:
			out[key] = fmt.Sprint(val)
		}
	}
	return out
}

func defaultCacheFile() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + string(os.PathSeparator) + "steamjump" + string(os.PathSeparator) + "cache.json"
	}
	return "steamjump-cache.json"
}

// helpers
func (s *source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.overlay[key]
}

func (s *source) getenv(key, def string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return def
}

func (s *source) getenvInt(key string, def int) int {
	if v := s.lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s *source) getenvFloat(key string, def float64) float64 {
	if v := s.lookup(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

func (s *source) mustBool(key string, def bool) bool {
	if v := s.lookup(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func (s *source) mustDuration(key string, def time.Duration) time.Duration {
	if v := s.lookup(key); v != "" {
		if d, err := ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return def
}

func (s *source) mustEnum(key, def string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(s.lookup(key)))
	if v == "" {
		return def
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	panic(fmt.Sprintf("❌ FATAL: Invalid value for %s: %q (allowed: %s)", key, v, strings.Join(allowed, ", ")))
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
