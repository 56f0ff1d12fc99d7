package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshelf/internal/auth"
	"bookshelf/internal/config"
	"bookshelf/internal/store"
)

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	cfg := &config.Config{JWTSecret: "s", TokenTTL: time.Hour}
	in := auth.SignupInput{FullName: "Demo", Email: "demo@x.com", Password: "pw"}

	require.NoError(t, seed(ctx, st, cfg, in, zap.NewNop()))
	require.NoError(t, seed(ctx, st, cfg, in, zap.NewNop()))

	u, err := st.GetByEmail(ctx, "demo@x.com")
	require.NoError(t, err)
	entries, err := st.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, entries, len(demoBooks))
}
