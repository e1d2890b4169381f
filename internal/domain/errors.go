package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for mapping into HTTP codes in delivery.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage error")
	ErrPersistence  = errors.New("persistence error")
	ErrUpstreamAuth = errors.New("upstream auth error")
)

var taxonomy = []error{
	ErrBadRequest,
	ErrUnauthorized,
	ErrNotFound,
	ErrConflict,
	ErrStorage,
	ErrPersistence,
	ErrUpstreamAuth,
}

func classified(err error) bool {
	for _, kind := range taxonomy {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// persistence tags raw store errors as ErrPersistence and leaves domain errors untouched.
func persistence(op string, err error) error {
	if err == nil || classified(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
