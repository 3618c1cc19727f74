// Package apperr holds the error kinds shared by the services and mapped to
// HTTP statuses by the API layer. Wrap them with fmt.Errorf("%w: ...").
package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalid            = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrRenderFailure      = errors.New("failed to generate document")
)
