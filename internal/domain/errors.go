// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden indicates the caller may not act on the target entity.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates a uniqueness or concurrent modification conflict.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates invalid caller-supplied input.
var ErrValidation = errors.New("validation")
