package service

import (
	"errors"

	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/sentinel"
)

// wrapStoreErr translates storage sentinels into domain errors.
// Domain errors already carrying a code pass through.
func wrapStoreErr(err error, notFoundMsg, duplicateMsg, internalMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeUniqueness, duplicateMsg)
	}
	if _, ok := dErrors.From(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

// asValidation converts a model invariant violation into a validation error for callers.
func asValidation(err error) error {
	if de, ok := dErrors.From(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}
