package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.  Only
// public catalogue reads are cached; availability and anything
// authenticated always hit the database.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  Only GET and HEAD may be
// listed in CACHE_METHODS; anything else is ignored.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      readOnlyMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "turfbook:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if len(cfg.Methods) == 0 {
		cfg.Methods = map[string]bool{"GET": true}
	}
	return cfg
}

func readOnlyMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		switch p = strings.TrimSpace(strings.ToUpper(p)); p {
		case "GET", "HEAD":
			m[p] = true
		}
	}
	return m
}
