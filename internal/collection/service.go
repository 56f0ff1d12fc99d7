package collection

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bookshelf/internal/apperr"
)

const defaultEnrichConcurrency = 8

type Service struct {
	repo              Repository
	catalog           Catalog
	log               *zap.Logger
	enrichConcurrency int
}

type Option func(*Service)

// WithEnrichConcurrency bounds the parallel catalog lookups of one listing.
func WithEnrichConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.enrichConcurrency = n
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(repo Repository, catalog Catalog, opts ...Option) *Service {
	s := &Service{
		repo:              repo,
		catalog:           catalog,
		log:               zap.NewNop(),
		enrichConcurrency: defaultEnrichConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save adds e to the user's collection. An entry without a catalog key is
// resolved through the catalog by title and author; if nothing matches the
// book is not saved.
func (s *Service) Save(ctx context.Context, userID string, e Entry) error {
	e.CatalogKey = strings.TrimSpace(e.CatalogKey)
	if e.CatalogKey == "" && e.Title == "" {
		return apperr.Validation("Book must have a key or a title.")
	}

	if e.CatalogKey == "" {
		key, ok := s.catalog.ResolveKey(ctx, e.Title, e.Author)
		if !ok {
			return apperr.NotFound("Book key not found. Cannot save book.")
		}
		e.CatalogKey = key
	}

	return s.repo.Add(ctx, userID, e)
}

// List returns the user's collection with live catalog details merged in.
// A failed lookup leaves that entry with its stored fields.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	entries, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []Entry{}, nil
	}

	out := make([]Entry, len(entries))
	copy(out, entries)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enrichConcurrency)
	for i := range out {
		if out[i].CatalogKey == "" {
			continue
		}
		g.Go(func() error {
			d, ok := s.catalog.FetchDetails(gctx, out[i].CatalogKey)
			if !ok {
				s.log.Debug("keeping stored fields after failed lookup", zap.String("key", out[i].CatalogKey))
				return nil
			}
			out[i] = out[i].withDetails(d.Cover, d.Description)
			return nil
		})
	}
	// lookups never return errors
	_ = g.Wait()

	return out, nil
}

// Delete removes the entry with catalogKey from the user's collection.
func (s *Service) Delete(ctx context.Context, userID, catalogKey string) error {
	catalogKey = strings.TrimSpace(catalogKey)
	if catalogKey == "" {
		return apperr.Validation("Book key is required.")
	}
	return s.repo.Remove(ctx, userID, catalogKey)
}
