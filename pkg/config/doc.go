// Package config loads CodeHub configuration from an optional YAML file and
// environment variables.
//
// # Precedence
//
// Defaults are overlaid by the YAML file named in CODEHUB_CONFIG_FILE, which
// is in turn overlaid by environment variables. Load validates the result.
//
// Server settings:
//
//	CODEHUB_HOST="0.0.0.0"
//	CODEHUB_PORT="8080"          # PORT is also accepted
//	CODEHUB_BASE_URL="https://codehub.example.com"
//	CODEHUB_SHUTDOWN_TIMEOUT="30s"
//
// Session settings:
//
//	CODEHUB_SESSION_SECRET="..."  # secret_key is also accepted
//	CODEHUB_SESSION_TTL="24h"     # 0 keeps a browser-session cookie
//	CODEHUB_SESSION_STORE="redis" # memory, redis
//	CODEHUB_REDIS_URL="redis://localhost:6379/0"
//
// Storage settings:
//
//	CODEHUB_STORE_TYPE="postgres" # memory, postgres, arango
//	CODEHUB_DATABASE_URL="postgres://localhost/codehub?sslmode=disable"
//
// Provider credentials:
//
//	CODEHUB_GOOGLE_CLIENT_ID / CODEHUB_GOOGLE_CLIENT_SECRET
//	CODEHUB_FACEBOOK_CLIENT_ID / CODEHUB_FACEBOOK_CLIENT_SECRET
//	CODEHUB_GITHUB_CLIENT_ID / CODEHUB_GITHUB_CLIENT_SECRET
//
// Observability settings:
//
//	CODEHUB_LOG_LEVEL="info"   # debug, info, warn, error
//	CODEHUB_LOG_FORMAT="json"  # text, json
//	CODEHUB_METRICS_ENABLED="true"
//	CODEHUB_OTEL_ENABLED="true"
//	CODEHUB_OTEL_ENDPOINT="otel-collector:4317"
//
// The equivalent YAML file:
//
//	server:
//	  port: "8080"
//	session:
//	  secret: change-me
//	  ttl: 24h
//	storage:
//	  type: postgres
//	  postgres_url: postgres://localhost/codehub?sslmode=disable
//	sso:
//	  base_url: https://codehub.example.com
//	  github:
//	    client_id: abc
//	    client_secret: def
package config
