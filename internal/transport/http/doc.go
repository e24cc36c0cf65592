// Package http exposes the report engine over a chi router.
//
// Handlers decode requests, delegate to the service layer through small
// interfaces and render JSON with go-chi/render. Every failure is passed
// to errors.ErrorHandler, which writes an RFC 7807 problem response.
//
// Routes mounted under /api/v1:
//
//	POST   /reports/analyze      multipart files[], cpm, session
//	POST   /reports              share a dashboard behind a password
//	GET    /reports              list share configurations
//	POST   /reports/{id}/open    open a snapshot with its password
//	DELETE /reports/{id}         delete a snapshot (X-Report-Password)
//	GET    /reports/{id}/export  csv or xlsx export (X-Report-Password)
//
// Health and version routes are mounted at the root by the app package.
package http
