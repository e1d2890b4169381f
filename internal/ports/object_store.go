package ports

import (
	"context"
	"errors"
)

// ErrObjectExists is returned by conditional writes when the key is already taken.
var ErrObjectExists = errors.New("object already exists")

type ObjectStore interface {
	// Put writes body under key, failing with ErrObjectExists instead of overwriting.
	Put(ctx context.Context, key, contentType string, body []byte) error
}
