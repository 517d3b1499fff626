// Package config loads the service configuration from an optional YAML file.
//
// Config fields:
//   - Server.HTTPPort        — listen port (default 8000)
//   - Server.*Timeout        — read/write/idle/shutdown timeouts
//   - Server.MaxBodyBytes    — request body cap for POST endpoints (default 1 MiB)
//   - CORS.*                 — cross-origin policy (default: everything allowed, with credentials)
//   - Prediction.JitterMin/Max — uniform jitter bounds (default 0.9 / 1.1)
//   - Log.Level              — debug | info | warn | error (default info)
//   - Metrics.Enabled/Path   — Prometheus exposition (default on, /metrics)
//
// Load(path) applies defaults before unmarshalling, then validates. An empty
// path returns the defaults unchanged. Watch(ctx, path, fn) re-runs Load on
// every write to the file and hands the result to fn.
package config
