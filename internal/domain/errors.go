package domain

import "errors"

var (
	// ErrNotFound is returned when a clinic or review lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks errors caused by invalid caller input.
	ErrValidation = errors.New("invalid input")

	// ErrNoRoute is returned when the routing provider finds no path.
	ErrNoRoute = errors.New("no route found")

	// ErrUpstream marks failures of an external provider the request depends on.
	ErrUpstream = errors.New("upstream unavailable")
)
