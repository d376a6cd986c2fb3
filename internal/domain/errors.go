package domain

import "errors"

// Error kinds raised by database backends. Callers classify failures with
// errors.Is; backends attach context with fmt.Errorf("...: %w", kind).
var (
	// ErrValidation marks malformed or missing required input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced corpus or IGT ID that is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an ID collision on create.
	ErrConflict = errors.New("already exists")

	// ErrIndexCorrupt marks an index file that is missing, unreadable, or
	// not valid structured data.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrRecordCorrupt marks a record file that cannot be decoded.
	ErrRecordCorrupt = errors.New("record corrupt")

	// ErrStorage marks an I/O failure on read, write, delete, or rename.
	ErrStorage = errors.New("storage failure")

	// ErrStorageUnavailable marks a database root that cannot be used at
	// startup.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
