package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped) so
// services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in the collection
//   - ErrAlreadyUsed: a unique field (ISBN, DNI, member number, email) is taken
//   - ErrExpired: registration token has expired
//   - ErrInvalidState: record is in the wrong state for the requested write
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
