package domain

import "errors"

var (
	// ErrNotFound is definitive: the source says the entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransient covers network, format and rate-limit failures.
	ErrTransient = errors.New("transient source error")
	// ErrUnavailable is returned once every source has been exhausted.
	ErrUnavailable = errors.New("no data available")
)
