// Command seed creates a demo user with a few saved books through the
// configured store driver.
package main

import (
	"context"
	"errors"
	"flag"

	"go.uber.org/zap"

	"bookshelf/internal/apperr"
	"bookshelf/internal/auth"
	"bookshelf/internal/collection"
	"bookshelf/internal/config"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/platform/openlibrary"
	"bookshelf/internal/store"
)

var demoBooks = []collection.Entry{
	{CatalogKey: "/works/OL45804W", Title: "Fantastic Mr Fox", Author: "Roald Dahl"},
	{CatalogKey: "/works/OL893415W", Title: "Dune", Author: "Frank Herbert"},
	{CatalogKey: "/works/OL66554W", Title: "Pride and Prejudice", Author: "Jane Austen"},
}

func main() {
	var (
		fullName = flag.String("name", "Demo Reader", "Full name of the demo user")
		email    = flag.String("email", "demo@bookshelf.local", "Email of the demo user")
		password = flag.String("password", "demo-password", "Password of the demo user")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Must("info", "console").Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.Must(cfg.LogLevel, "console")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	st, closeStore, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("cannot open store", zap.Error(err))
	}

	err = seed(ctx, st, cfg, auth.SignupInput{FullName: *fullName, Email: *email, Password: *password}, log)
	closeStore()
	if err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func seed(ctx context.Context, st store.Store, cfg *config.Config, in auth.SignupInput, log *zap.Logger) error {
	authService := auth.NewService(st, cfg.JWTSecret, cfg.TokenTTL)
	if err := authService.Signup(ctx, in); err != nil {
		if !errors.Is(err, apperr.ErrConflict) {
			return err
		}
		log.Info("demo user already exists", zap.String("email", in.Email))
	}

	u, err := st.GetByEmail(ctx, in.Email)
	if err != nil {
		return err
	}

	// keys are set, so saving never reaches the catalog
	books := collection.NewService(st, openlibrary.NewClient(openlibrary.Options{}))
	for _, b := range demoBooks {
		err := books.Save(ctx, u.ID, b)
		switch {
		case err == nil:
			log.Info("saved book", zap.String("key", b.CatalogKey))
		case errors.Is(err, apperr.ErrConflict):
			log.Debug("book already saved", zap.String("key", b.CatalogKey))
		default:
			return err
		}
	}

	log.Info("seed done", zap.String("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
