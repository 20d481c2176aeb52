//go:build integration

package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartlibrary/internal/testutil"
)

func TestPostgresRepo_Integration(t *testing.T) {
	pool := testutil.StartPostgres(t)
	repo := NewPostgresRepo(pool, 5*time.Second)
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, Registration{Username: "carol_prof", Email: "Carol@Example.com", Password: "Pr0fess0r!"})
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := svc.GetByEmail(ctx, "CAROL@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, got.PasswordHash)

	_, err = svc.Register(ctx, Registration{Username: "carol_prof", Email: "other@example.com", Password: "Pr0fess0r!"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = repo.GetByID(ctx, 999999)
	assert.ErrorIs(t, err, ErrNotFound)
}
