// Package app wires the underwriting service together and manages its
// lifecycle.
//
// NewApplication builds, in order: the logger, OpenTelemetry providers, the
// artifact store selected by the storage config, the analysis and health
// services, the chi router with its middleware chain and the http.Server.
//
// Middleware order is RequestID, RealIP, OTel, StructuredLogger, Recoverer,
// secure headers, CORS and the rate limiter. The /api subtree adds a JSON
// content type and the configured request timeout.
//
// Run blocks until SIGINT or SIGTERM and then shuts down the server, closes
// the artifact store and flushes telemetry. Errors are returned to the
// caller; the package never exits the process.
package app
