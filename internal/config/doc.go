// Package config handles configuration loading for lunarus-server.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${LUNARUS_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to an empty string.
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  public_base_url: "https://api.lunarus.example"   # optional, for absolute upload links
//
// Database:
//
//	database:
//	  url: "${DATABASE_URL}"    # Postgres connection string
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${LUNARUS_JWT_SECRET}"
//
// Uploads:
//
//	uploads:
//	  dir: "/var/lib/lunarus/uploads"
//
// Voice (LiveKit):
//
//	livekit:
//	  url: "http://livekit:7880"
//	  public_url: "https://api.lunarus.example"
//	  api_key: "${LIVEKIT_API_KEY}"
//	  api_secret: "${LIVEKIT_API_SECRET}"
//
// GIF search (Tenor):
//
//	tenor:
//	  api_key: "${TENOR_API_KEY}"
//	  client_key: "lunarus"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/lunarus/server.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
