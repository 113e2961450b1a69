package repository

import (
	"context"
	"errors"
)

// ErrConflict is returned when an update keeps racing with other writers.
var ErrConflict = errors.New("concurrent update conflict")

// UpdateFunc receives the current value (ok is false when the key is
// absent) and returns the value to store. An error aborts the update.
type UpdateFunc func(current string, ok bool) (string, error)

// CacheRepository is a string key/value store. Get reports false when the
// key is absent; a non-nil error means the backend itself failed.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	// Update applies fn atomically with respect to other writers of key.
	// fn may run more than once.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}
