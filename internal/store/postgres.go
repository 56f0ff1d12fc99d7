package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf/internal/apperr"
	"bookshelf/internal/collection"
	"bookshelf/internal/user"
)

const pgUniqueViolation = "23505"

// PGStore keeps each user's collection as a JSONB array on the users row.
type PGStore struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPGStore(db *pgxpool.Pool, timeout time.Duration) *PGStore {
	return &PGStore{db: db, timeout: timeout}
}

func (s *PGStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PGStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.Ping(ctx)
}

func (s *PGStore) Create(ctx context.Context, u *user.User) error {
	const query = `
	INSERT INTO users (full_name, email, password_hash, bio)
	VALUES ($1, $2, $3, $4)
	RETURNING id, email, created_at, updated_at
	`
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.db.QueryRow(ctx, query, u.FullName, user.NormalizeEmail(u.Email), u.PasswordHash, u.Bio).
		Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return errUserExists
		}
		return apperr.Internal("create user", err)
	}
	return nil
}

func (s *PGStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	const query = `
	SELECT id, full_name, email, password_hash, bio, created_at, updated_at
	FROM users
	WHERE email = $1
	LIMIT 1
	`
	return s.getUser(ctx, query, user.NormalizeEmail(email))
}

func (s *PGStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, errUserNotFound
	}
	const query = `
	SELECT id, full_name, email, password_hash, bio, created_at, updated_at
	FROM users WHERE id = $1 LIMIT 1
	`
	return s.getUser(ctx, query, id)
}

func (s *PGStore) getUser(ctx context.Context, query string, arg string) (user.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var u user.User
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Bio, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, errUserNotFound
		}
		return user.User{}, apperr.Internal("get user", err)
	}
	return u, nil
}

func (s *PGStore) UpdateBio(ctx context.Context, id, bio string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errUserNotFound
	}
	const query = `UPDATE users SET bio = $2, updated_at = now() WHERE id = $1`

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, id, bio)
	if err != nil {
		return apperr.Internal("update bio", err)
	}
	if tag.RowsAffected() == 0 {
		return errUserNotFound
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, userID string) ([]collection.Entry, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, errUserNotFound
	}
	const query = `SELECT collection FROM users WHERE id = $1`

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var raw []byte
	if err := s.db.QueryRow(ctx, query, userID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errUserNotFound
		}
		return nil, apperr.Internal("list collection", err)
	}

	entries := []collection.Entry{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, apperr.Internal("decode collection", err)
		}
	}
	return entries, nil
}

// Add appends e in a single UPDATE guarded by a containment check on the
// catalog key.
func (s *PGStore) Add(ctx context.Context, userID string, e collection.Entry) error {
	if _, err := uuid.Parse(userID); err != nil {
		return errUserNotFound
	}
	const query = `
	UPDATE users
	SET collection = collection || jsonb_build_array($2::jsonb), updated_at = now()
	WHERE id = $1 AND NOT collection @> $3::jsonb
	`
	doc, err := json.Marshal(e)
	if err != nil {
		return apperr.Internal("encode book", err)
	}
	probe, err := keyProbe(e.CatalogKey)
	if err != nil {
		return apperr.Internal("encode book", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, userID, string(doc), probe)
	if err != nil {
		return apperr.Internal("add book", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return s.missOrConflict(ctx, userID, errBookExists)
}

func (s *PGStore) Remove(ctx context.Context, userID, catalogKey string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return errUserNotFound
	}
	const query = `
	UPDATE users
	SET collection = COALESCE(
		(SELECT jsonb_agg(e) FROM jsonb_array_elements(collection) AS e WHERE e->>'catalogKey' <> $2),
		'[]'::jsonb
	), updated_at = now()
	WHERE id = $1 AND collection @> $3::jsonb
	`
	probe, err := keyProbe(catalogKey)
	if err != nil {
		return apperr.Internal("encode key", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, userID, catalogKey, probe)
	if err != nil {
		return apperr.Internal("remove book", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return s.missOrConflict(ctx, userID, errBookNotFound)
}

func (s *PGStore) missOrConflict(ctx context.Context, userID string, conditionErr error) error {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return apperr.Internal("check user", err)
	}
	if !exists {
		return errUserNotFound
	}
	return conditionErr
}

// keyProbe is the JSONB containment operand matching an array holding an
// entry with the given key.
func keyProbe(catalogKey string) (string, error) {
	b, err := json.Marshal([]map[string]string{{"catalogKey": catalogKey}})
	return string(b), err
}
