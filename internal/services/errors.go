package services

import "errors"

// Report service errors
var (
	// Share errors
	ErrReportNotFound = errors.New("report not found")
	ErrWrongPassword  = errors.New("wrong password")
	ErrReportExpired  = errors.New("report expired")
	ErrNoDashboard    = errors.New("no dashboard to share")

	// Upload errors
	ErrNoFiles        = errors.New("no files uploaded")
	ErrTooManyFiles   = errors.New("too many files")
	ErrUploadTooLarge = errors.New("upload too large")
)
