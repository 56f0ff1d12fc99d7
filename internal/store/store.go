// Package store implements the user and collection repositories on MongoDB,
// PostgreSQL and process memory.
package store

import (
	"context"

	"bookshelf/internal/apperr"
	"bookshelf/internal/collection"
	"bookshelf/internal/user"
)

// Store is everything the server needs from a backend.
type Store interface {
	user.Repository
	collection.Repository
	Ping(ctx context.Context) error
}

var (
	errUserNotFound = apperr.NotFound("User not found.")
	errUserExists   = apperr.Conflict("User already exists.")
	errBookExists   = apperr.Conflict("Book already exists in your collection.")
	errBookNotFound = apperr.NotFound("Book not found in your collection.")
)

var (
	_ Store = (*MongoStore)(nil)
	_ Store = (*PGStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// legacyKey moves a catalog key stored under the old "key" field into
// CatalogKey.
func legacyKey(e collection.Entry) collection.Entry {
	if k, ok := e.Extra["key"].(string); ok {
		if e.CatalogKey == "" {
			e.CatalogKey = k
		}
		delete(e.Extra, "key")
	}
	return e
}
