package service

import "errors"

var (
	// ErrJobNotFound is returned when an import job does not exist
	ErrJobNotFound = errors.New("import job not found")
	// ErrInvalidJobState is returned when a job cannot make the requested transition
	ErrInvalidJobState = errors.New("import job is not awaiting confirmation")
	// ErrNothingToImport is returned when confirming a job with no valid records
	ErrNothingToImport = errors.New("import has no valid records")
	// ErrFileTooLarge is returned when an upload or download exceeds the size limit
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	// ErrBookNotFound is returned when a book does not exist
	ErrBookNotFound = errors.New("book not found")
	// ErrInvalidBook wraps field-level problems with a book request
	ErrInvalidBook = errors.New("invalid book")
	// ErrUnsupportedFormat is returned for unknown export formats
	ErrUnsupportedFormat = errors.New("unsupported format")
)
