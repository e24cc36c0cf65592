// Package services implements the business logic between the HTTP handlers
// and the analysis core.
//
// ReportService is the main entry point:
//
//   - Analyze runs the uploads of one client through an upload session
//     (concurrent decode, then a barrier) and aggregates the result into a
//     dashboard with insights. A second Analyze under the same session key
//     abandons the first.
//   - Share stores a slimmed snapshot of a dashboard behind a bcrypt-hashed
//     password and returns its share link.
//   - Open, Export and Delete verify the password first. Expired links
//     answer ErrReportExpired.
//   - List returns share configurations without password hashes.
//
// HealthService backs the liveness and readiness endpoints.
//
// Errors are package sentinels wrapped with %w; the HTTP layer maps them to
// problem responses with errors.Is.
package services
