package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/config"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storage"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, dsn))

	pool, err := NewPool(ctx, config.StoreConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `TRUNCATE characters`)
	require.NoError(t, err)

	s := NewStore(pool)
	t.Cleanup(s.Close)
	return s
}

func TestStore_CRUD(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a := &models.Character{Name: "Alice", Profile: "A brave explorer"}
	require.NoError(t, s.CreateCharacter(ctx, a))
	assert.True(t, storage.ValidID(a.ID))
	assert.False(t, a.CreatedAt.IsZero())

	b := &models.Character{Name: "Bob", Profile: "A cynical mechanic"}
	require.NoError(t, s.CreateCharacter(ctx, b))

	list, err := s.ListCharacters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, "Bob", list[1].Name)

	created := a.CreatedAt
	a.Name = "Alicia"
	require.NoError(t, s.UpdateCharacter(ctx, a))

	got, err := s.GetCharacter(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.Name)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, s.DeleteCharacter(ctx, b.ID))
	_, err = s.GetCharacter(ctx, b.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_NotFound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	missing := "00000000-0000-0000-0000-000000000001"

	_, err := s.GetCharacter(ctx, missing)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.UpdateCharacter(ctx, &models.Character{ID: missing, Name: "x", Profile: "y"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.DeleteCharacter(ctx, missing), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCharacter(ctx, "not-a-uuid"), storage.ErrNotFound)
}

func TestMigrationVersion(t *testing.T) {
	s := setupStore(t)
	_ = s

	v, err := MigrationVersion(context.Background(), os.Getenv("TEST_DATABASE_URL"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, int64(1))
}
