package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalCairn         = "cairn"
	luaFieldContentRoot    = "content_root"
	luaFieldManifest       = "manifest"
	luaFieldDistribution   = "distribution"
	luaFieldBaseURL        = "base_url"
	luaFieldTrustedKeysURL = "trusted_keys_url"
	luaFieldFeatures       = "features"
	luaFieldCustomRes      = "custom_resolution"
	luaFieldQuickPlayMulti = "quick_play_multiplayer"
	luaFieldDownload       = "download"
	luaFieldTimeout        = "timeout"
	luaFieldMaxRate        = "max_rate"
	luaFieldParallel       = "parallel"
	luaFieldUserAgent      = "user_agent"
	luaFieldLog            = "log"
	luaFieldLevel          = "level"
	luaFieldFormat         = "format"
)

// Defaults and limits
const (
	DefaultFileName    = "cairn.lua"
	DefaultContentRoot = "~/.cairn/game"
	DefaultManifest    = "manifest.json"
	DefaultTimeout     = 5 * time.Minute
	DefaultParallel    = 4
	DefaultUserAgent   = "cairn/1.0"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"

	// MaxConfigSize bounds the config file read from disk.
	MaxConfigSize = 1 << 20
	// MaxParallel bounds concurrent top-level artifact passes.
	MaxParallel = 64
)
