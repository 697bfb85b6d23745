// Package http implements the HTTP handlers of the underwriting service.
// Handlers stay thin: they parse the request, call a service and turn the
// outcome into JSON, a raw artifact or an RFC 7807 problem document.
//
// # Endpoints
//
//	GET    /                                     upload page
//	GET    /api/schemas                          registered schemas
//	POST   /api/analyses                         multipart upload, 201 or 422
//	GET    /api/analyses/{session}/artifacts     artifact listing
//	GET    /api/analyses/{session}/artifacts/{n} artifact download
//	POST   /api/analyses/{session}/report        PDF report, 201
//	DELETE /api/analyses/{session}               204
//	POST   /api/logs                             client side log entries
//	GET    /api/health[/live|/ready|/detailed]   health probes
//	GET    /metrics                              Prometheus scrape
//
// # Errors
//
// Service sentinels are mapped to APIError values by mapServiceError and
// rendered by errors.ErrorHandler. A missing column result is a 422 whose
// problem document carries a missing_columns member.
package http
