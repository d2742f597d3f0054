// Package api hosts the optional HTTP status server, middleware, and REST
// handlers for operator access. Notable routes:
//   - GET /healthz and /readyz for liveness and readiness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/runs and /v1/runs/{run_id}/sites for crawl progress via the
//     RunRepository interface.
package api
