// Package config reads the launcher configuration, cairn.lua.
//
// The file is Lua evaluated in a sandbox and must define a global table
// named cairn:
//
//	cairn = {
//	  content_root = "~/.cairn/game",
//	  manifest = "manifest.json",
//	  distribution = {
//	    base_url = "https://dist.example.com/game",
//	    trusted_keys_url = "https://dist.example.com/trusted_keys.json",
//	  },
//	  features = { custom_resolution = true, quick_play_multiplayer = false },
//	  download = { timeout = 300, max_rate = 0, parallel = 4, user_agent = "cairn/1.0" },
//	  log = { level = "info", format = "console" },
//	}
//
// Every field is optional; omitted fields take the values of Default.
// download.timeout is in seconds and download.max_rate in bytes per second
// (0 disables throttling).
//
// # Platform table
//
// A read-only global named platform describes the host, so a config can
// branch per machine:
//
//	cairn = {
//	  content_root = platform.is_windows and "~/AppData/Roaming/cairn" or "~/.cairn/game",
//	}
//
// # Sandbox
//
// Only the base, string, table and math libraries are loaded. Code loading
// (require, dofile, load, ...), metatable access, os, io and debug are
// removed, so a config can compute values but has no side effects. Lua
// evaluation honors the context passed to the parser.
//
// # Errors
//
// Lua errors are returned as *ParseError. Values of the wrong type and
// values out of range are returned as *ValidationError naming the field.
package config
