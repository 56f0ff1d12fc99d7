package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/collection"
	"bookshelf/internal/user"
)

type memoryRecord struct {
	user    user.User
	entries []collection.Entry
}

// MemoryStore keeps everything in process memory. It backs tests and the
// "memory" store driver.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*memoryRecord
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*memoryRecord),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := user.NormalizeEmail(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return errUserExists
	}

	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now

	s.byID[u.ID] = &memoryRecord{user: *u, entries: []collection.Entry{}}
	s.byEmail[email] = u.ID
	return nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, errUserNotFound
	}
	return s.byID[id].user, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return user.User{}, errUserNotFound
	}
	return rec.user, nil
}

func (s *MemoryStore) UpdateBio(_ context.Context, id, bio string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return errUserNotFound
	}
	rec.user.Bio = bio
	rec.user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string) ([]collection.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[userID]
	if !ok {
		return nil, errUserNotFound
	}
	return slices.Clone(rec.entries), nil
}

func (s *MemoryStore) Add(_ context.Context, userID string, e collection.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[userID]
	if !ok {
		return errUserNotFound
	}
	if indexOf(rec.entries, e.CatalogKey) >= 0 {
		return errBookExists
	}
	rec.entries = append(rec.entries, e)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, userID, catalogKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[userID]
	if !ok {
		return errUserNotFound
	}
	i := indexOf(rec.entries, catalogKey)
	if i < 0 {
		return errBookNotFound
	}
	rec.entries = slices.Delete(rec.entries, i, i+1)
	return nil
}

func indexOf(entries []collection.Entry, catalogKey string) int {
	return slices.IndexFunc(entries, func(e collection.Entry) bool {
		return e.CatalogKey == catalogKey
	})
}
