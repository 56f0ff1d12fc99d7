package collection_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/apperr"
	"bookshelf/internal/collection"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/store/mocks"
)

func newService(t *testing.T) (*collection.Service, *mocks.MockCollectionRepository, *mocks.MockCatalog) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockCollectionRepository(ctrl)
	catalog := mocks.NewMockCatalog(ctrl)
	return collection.NewService(repo, catalog, collection.WithEnrichConcurrency(2)), repo, catalog
}

func TestService_Save_WithKey(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	repo.EXPECT().
		Add(ctx, "u1", collection.Entry{CatalogKey: "/works/OL1W", Title: "Dune"}).
		Return(nil)

	err := svc.Save(ctx, "u1", collection.Entry{CatalogKey: " /works/OL1W ", Title: "Dune"})
	assert.NoError(t, err)
}

func TestService_Save_ResolvesMissingKey(t *testing.T) {
	svc, repo, catalog := newService(t)
	ctx := context.Background()

	gomock.InOrder(
		catalog.EXPECT().ResolveKey(ctx, "Emma", "Jane Austen").Return("/works/OL66W", true),
		repo.EXPECT().
			Add(ctx, "u1", collection.Entry{CatalogKey: "/works/OL66W", Title: "Emma", Author: "Jane Austen"}).
			Return(nil),
	)

	err := svc.Save(ctx, "u1", collection.Entry{Title: "Emma", Author: "Jane Austen"})
	assert.NoError(t, err)
}

func TestService_Save_UnresolvableKey(t *testing.T) {
	svc, _, catalog := newService(t)
	ctx := context.Background()

	catalog.EXPECT().ResolveKey(ctx, "Nothing Like It", "").Return("", false)

	err := svc.Save(ctx, "u1", collection.Entry{Title: "Nothing Like It"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Equal(t, "Book key not found. Cannot save book.", apperr.MessageOf(err, ""))
}

func TestService_Save_NoKeyNoTitle(t *testing.T) {
	svc, _, _ := newService(t)

	err := svc.Save(context.Background(), "u1", collection.Entry{Author: "Anon"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestService_Save_Duplicate(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	repo.EXPECT().Add(ctx, "u1", gomock.Any()).Return(apperr.Conflict("Book already in your collection."))

	err := svc.Save(ctx, "u1", collection.Entry{CatalogKey: "/works/OL1W"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestService_List_Empty(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	repo.EXPECT().List(ctx, "u1").Return(nil, nil)

	books, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestService_List_EnrichesAndKeepsFailedLookups(t *testing.T) {
	svc, repo, catalog := newService(t)
	ctx := context.Background()

	stored := []collection.Entry{
		{CatalogKey: "/works/A", Title: "A"},
		{CatalogKey: "/works/B", Title: "B", Extra: map[string]any{"description": "saved text"}},
		{CatalogKey: "/works/C", Title: "C"},
	}
	cover := "https://covers.openlibrary.org/b/id/7-L.jpg"

	repo.EXPECT().List(ctx, "u1").Return(stored, nil)
	catalog.EXPECT().FetchDetails(gomock.Any(), "/works/A").
		Return(openlibrary.Details{Cover: &cover, Description: "About A."}, true)
	catalog.EXPECT().FetchDetails(gomock.Any(), "/works/B").
		Return(openlibrary.Details{}, false)
	catalog.EXPECT().FetchDetails(gomock.Any(), "/works/C").
		Return(openlibrary.Details{Description: openlibrary.NoDescription}, true)

	books, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, books, 3)

	assert.Equal(t, "/works/A", books[0].CatalogKey)
	assert.Equal(t, cover, books[0].Extra["cover"])
	assert.Equal(t, "About A.", books[0].Extra["description"])

	assert.Equal(t, "saved text", books[1].Extra["description"])
	_, hasCover := books[1].Extra["cover"]
	assert.False(t, hasCover)

	assert.Nil(t, books[2].Extra["cover"])
	assert.Equal(t, openlibrary.NoDescription, books[2].Extra["description"])

	assert.Nil(t, stored[0].Extra, "repository slice must not be modified")
}

func TestService_List_BoundedConcurrency(t *testing.T) {
	svc, repo, catalog := newService(t)
	ctx := context.Background()

	stored := make([]collection.Entry, 6)
	for i := range stored {
		stored[i] = collection.Entry{CatalogKey: "/works/" + string(rune('A'+i))}
	}
	repo.EXPECT().List(ctx, "u1").Return(stored, nil)

	var inFlight, peak atomic.Int32
	catalog.EXPECT().FetchDetails(gomock.Any(), gomock.Any()).
		Times(len(stored)).
		DoAndReturn(func(context.Context, string) (openlibrary.Details, bool) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			inFlight.Add(-1)
			return openlibrary.Details{Description: "d"}, true
		})

	books, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, books, len(stored))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestService_List_RepoError(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	repo.EXPECT().List(ctx, "missing").Return(nil, apperr.NotFound("User not found."))

	_, err := svc.List(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestService_Delete(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	repo.EXPECT().Remove(ctx, "u1", "/works/OL1W").Return(nil)
	assert.NoError(t, svc.Delete(ctx, "u1", "/works/OL1W"))

	err := svc.Delete(ctx, "u1", "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
