// Package config loads the server configuration from config.yaml.
//
// Sections:
//   - server  : HTTP port, timeouts, CORS origins, per-IP rate limit
//   - upstream: CoinGecko and TaoStats base URLs, key env vars, request timeout
//   - cache   : backend (memory|redis), redis connection, freshness windows
//   - auth    : identity provider key env var, endpoint, admin email domain
//   - stream  : stats broadcast interval for /ws/stream
//   - log     : level, format (json|text), optional rotating file
//
// Secrets never live in the file: every *_env field names the environment
// variable that holds the value. Load(path) applies defaults before
// unmarshalling, then validates. Watch reloads the file on change.
package config
