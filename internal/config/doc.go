// Package config handles configuration loading for taskboard.
//
// # Overview
//
// Configuration is loaded from a YAML file (or TOML, when the file name ends
// in .toml) with environment variable expansion, defaults and validation.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TASKBOARD_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/taskboard/config.yaml
//  3. ~/.config/taskboard/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${TASKBOARD_SECRET}"
//
// After expansion, TASKBOARD_DATA_PATH replaces storage.path and
// TASKBOARD_JWT_SECRET replaces auth.jwt_secret.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:3000"
//	  read_header_timeout: "10s"
//	  shutdown_timeout: "10s"
//
//	storage:
//	  driver: "file"          # file, sqlite
//	  path: "./data.json"
//	  mirror_path: ""         # file driver only; best-effort copy after each save
//	  ephemeral: false        # empty path goes under the OS temp dir, mirrored to ./data.json
//	  validate_on_load: false # check the document against its JSON Schema on every load
//
//	auth:
//	  jwt_secret: "..."       # at least 32 bytes
//	  token_ttl: "168h"
//	  bcrypt_cost: 10
//	  login_rate: 1           # per second, per client IP
//	  login_burst: 10
//
//	idempotency:
//	  ttl: "24h"
//	  max_keys: 10000
//
//	cors:
//	  allowed_origins: []     # empty reflects the request Origin
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	debug:
//	  enabled: false  # exposes GET /api/debug
//
// Duration values use Go's time.ParseDuration syntax.
package config
