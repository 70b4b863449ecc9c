package travelrepo

import "errors"

var (
	// ErrNotFound is returned when no record matches both the id and the owner.
	ErrNotFound      = errors.New("travel not found")
	ErrAlreadyExists = errors.New("travel already exists")
)
