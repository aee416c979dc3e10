// Package config loads LuckyFind's settings.
//
// # Resolution order
//
//  1. Built-in defaults
//  2. The TOML file at the given path, or ~/.config/luckyfind/config.toml
//  3. LUCKYFIND_* environment variables
//
// A missing file is not an error. Empty file values keep the defaults, and
// unset environment variables keep whatever the file said.
//
// # Defaults
//
//   - cache_ttl: 5m
//   - cache_max_entries: 50
//   - sweep_interval: 1m
//   - per_page: 25 (clamped to 100)
//
// # TOML format
//
//	discogs_token = "..."          # or discogs_key + discogs_secret
//	base_url = "https://api.discogs.com"
//	user_agent = "LuckyFind/0.1"
//	cache_ttl = "5m"
//	cache_max_entries = 50
//	sweep_interval = "1m"
//	per_page = 25
//	debug_log = "~/.local/state/luckyfind/debug.log"
//
// # Environment
//
//	LUCKYFIND_DISCOGS_TOKEN, LUCKYFIND_DISCOGS_KEY, LUCKYFIND_DISCOGS_SECRET,
//	LUCKYFIND_BASE_URL, LUCKYFIND_USER_AGENT, LUCKYFIND_CACHE_TTL,
//	LUCKYFIND_CACHE_MAX_ENTRIES, LUCKYFIND_SWEEP_INTERVAL, LUCKYFIND_PER_PAGE,
//	LUCKYFIND_DEBUG_LOG
//
// Durations use time.ParseDuration syntax in both places.
package config
