// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/editor layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., slug taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates a payload rejected by validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFatalInit indicates the editor could not load the server aggregate and cannot open.
	ErrFatalInit = errors.New("editor init failed")

	// ErrPartialSave indicates at least one operation of a save batch failed.
	ErrPartialSave = errors.New("partial save failure")

	// ErrRecordGone indicates an update targeted a record the server no longer has.
	// Retrying cannot succeed; the record has to be removed or added again.
	ErrRecordGone = errors.New("record no longer exists on the server")

	// ErrSaveInFlight indicates a save was requested while another is dispatching.
	ErrSaveInFlight = errors.New("save already in progress")
)
