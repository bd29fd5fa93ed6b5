// Package config handles configuration loading for the genia client and its
// development server.
//
// # Client Configuration
//
// The terminal client reads YAML. Default locations (in order):
//
//  1. Path from GENIA_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/genia/client.yaml (or ~/.config/genia/client.yaml)
//
// A missing file is not an error: every field has a default.
//
//	server:
//	  url: "http://localhost:8000"
//	owner_id: "1"
//	timeouts:
//	  answer: "60s"
//	  upload: "5m"
//	logging:
//	  level: "info"     # debug, info, warn, error
//	  format: "text"    # text or json
//
// # Bearer Token
//
// The client sends Authorization: Bearer <token> when a token is found in
// GENIA_TOKEN or in the token file next to client.yaml.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	server:
//	  url: "${GENIA_SERVER_URL}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax. Supported units: ns,
// us, ms, s, m, h.
//
// # Development Server Configuration
//
// genia-devserver reads TOML with the same ${VAR} expansion:
//
//	[server]
//	addr = "127.0.0.1:8000"
//
//	[database]
//	path = "genia.db"
//
//	[uploads]
//	dir = "uploads"
//
//	[auth]
//	jwt_secret = "${GENIA_JWT_SECRET}"   # at least 32 bytes; empty disables auth
//
//	[gemini]
//	api_key = "${GEMINI_API_KEY}"        # empty uses extractive answers
//	model = "gemini-2.5-flash"
package config
