// Package api hosts the HTTP server, middleware, and REST handlers for
// operator access. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/audits for audit submission.
//   - GET /v1/audits/{id} and /v1/audits/{id}/report for results.
package api
