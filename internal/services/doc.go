// Package services implements the business logic layer between the HTTP and
// CLI front ends and the analysis packages.
//
// # Available Services
//
//   - AnalysisService: validates uploads, runs the analysis pipeline and
//     manages session scoped artifacts
//   - HealthService: liveness, readiness and version information
//
// # Analysis Pipeline
//
// AnalysisService.Analyze runs these steps for one upload:
//
//  1. Reject an unselected SourceKind
//  2. Validate the file name, size and signature
//  3. Load the first (or configured) sheet into a Dataset
//  4. Resolve the schema version and detect missing columns
//  5. Derive per-area metrics, dates and coordinates
//  6. Compute the rounded mean
//  7. Render the plot and the map concurrently
//  8. Store the artifacts under a fresh session id
//
// A dataset with missing columns is not an error: the result carries the
// missing column names and a preview, and no session is created.
//
// # Error Handling
//
// Services return the sentinel errors in errors.go or wrapped AppErrors
// from internal/errors; handlers map them to problem details.
package services
