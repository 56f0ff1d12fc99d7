package collection

import (
	"context"

	"bookshelf/internal/platform/openlibrary"
)

//go:generate mockgen -destination=../store/mocks/mock_collection.go -package=mocks -mock_names=Repository=MockCollectionRepository bookshelf/internal/collection Repository,Catalog

// Repository persists the collection embedded in each user record.
//
// Add must check-and-append in a single store operation and report an
// existing key with apperr.Conflict. All methods report a missing user with
// apperr.NotFound.
type Repository interface {
	List(ctx context.Context, userID string) ([]Entry, error)
	Add(ctx context.Context, userID string, e Entry) error
	Remove(ctx context.Context, userID, catalogKey string) error
}

// Catalog is the external book lookup. Both calls are best-effort and never
// fail the caller.
type Catalog interface {
	ResolveKey(ctx context.Context, title, author string) (string, bool)
	FetchDetails(ctx context.Context, key string) (openlibrary.Details, bool)
}
