package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/apperr"
	"bookshelf/internal/collection"
	"bookshelf/internal/user"
)

// testStore runs the repository contract against s. Each backend test calls
// it with a fresh store.
func testStore(t *testing.T, s Store, missingID string) {
	ctx := context.Background()
	email := fmt.Sprintf("Reader-%d@Example.com", time.Now().UnixNano())

	newUser := func(t *testing.T) user.User {
		t.Helper()
		u := user.User{FullName: "Ada Reader", Email: "  " + email + " ", PasswordHash: "hash"}
		require.NoError(t, s.Create(ctx, &u))
		return u
	}

	u := newUser(t)

	t.Run("create assigns id and normalizes email", func(t *testing.T) {
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, user.NormalizeEmail(email), u.Email)
		assert.False(t, u.CreatedAt.IsZero())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		dup := user.User{FullName: "Other", Email: email, PasswordHash: "x"}
		err := s.Create(ctx, &dup)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("lookups", func(t *testing.T) {
		byEmail, err := s.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := s.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada Reader", byID.FullName)
		assert.Empty(t, byID.Bio)

		_, err = s.GetByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		_, err = s.GetByID(ctx, missingID)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		_, err = s.GetByID(ctx, "not-an-id")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("update bio", func(t *testing.T) {
		require.NoError(t, s.UpdateBio(ctx, u.ID, "Reads at night."))
		got, err := s.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Reads at night.", got.Bio)

		err = s.UpdateBio(ctx, missingID, "x")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("collection lifecycle", func(t *testing.T) {
		entries, err := s.List(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)

		dune := collection.Entry{
			CatalogKey: "/works/OL893415W",
			Title:      "Dune",
			Author:     "Frank Herbert",
			Extra:      map[string]any{"first_publish_year": 1965.0},
		}
		require.NoError(t, s.Add(ctx, u.ID, dune))
		require.NoError(t, s.Add(ctx, u.ID, collection.Entry{CatalogKey: "/works/OL66W", Title: "Emma"}))

		err = s.Add(ctx, u.ID, collection.Entry{CatalogKey: dune.CatalogKey, Title: "Dune again"})
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

		entries, err = s.List(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Dune", entries[0].Title)
		assert.Equal(t, "Frank Herbert", entries[0].Author)
		assert.EqualValues(t, 1965, entries[0].Extra["first_publish_year"])
		assert.Equal(t, "/works/OL66W", entries[1].CatalogKey)

		require.NoError(t, s.Remove(ctx, u.ID, dune.CatalogKey))
		err = s.Remove(ctx, u.ID, dune.CatalogKey)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		entries, err = s.List(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Emma", entries[0].Title)
	})

	t.Run("collection ops on missing user", func(t *testing.T) {
		_, err := s.List(ctx, missingID)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		err = s.Add(ctx, missingID, collection.Entry{CatalogKey: "/works/X"})
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		err = s.Remove(ctx, missingID, "/works/X")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("concurrent duplicate saves keep one entry", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		var ok atomic.Int32
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.Add(ctx, u.ID, collection.Entry{CatalogKey: "/works/RACE"}) == nil {
					ok.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), ok.Load())
		entries, err := s.List(ctx, u.ID)
		require.NoError(t, err)
		n := 0
		for _, e := range entries {
			if e.CatalogKey == "/works/RACE" {
				n++
			}
		}
		assert.Equal(t, 1, n)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore(), "00000000-0000-0000-0000-000000000000")
}

func TestMemoryStore_ListIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := user.User{FullName: "A", Email: "a@example.com", PasswordHash: "h"}
	require.NoError(t, s.Create(ctx, &u))
	require.NoError(t, s.Add(ctx, u.ID, collection.Entry{CatalogKey: "/works/1"}))

	entries, err := s.List(ctx, u.ID)
	require.NoError(t, err)
	entries[0].CatalogKey = "changed"

	again, err := s.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "/works/1", again[0].CatalogKey)
}

func TestLegacyKey(t *testing.T) {
	e := legacyKey(collection.Entry{Title: "Old", Extra: map[string]any{"key": "/works/OLD", "year": 1}})

	assert.Equal(t, "/works/OLD", e.CatalogKey)
	assert.NotContains(t, e.Extra, "key")
	assert.Equal(t, 1, e.Extra["year"])
}
