// Package repository holds the MongoDB-backed stores and the sentinel
// errors they share.  Handlers and services never see driver errors
// directly: lookups that match nothing return ErrNotFound and writes that
// hit a unique index return ErrDuplicate.
package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique index.
// Services translate this into a 409 Conflict.
var ErrDuplicate = errors.New("duplicate key")

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicate, err)
	}
	return err
}
