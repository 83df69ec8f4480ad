package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
)

func newTestStorage(t *testing.T) *FileStorage {
	t.Helper()
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	// 固定递增的时钟，保证创建顺序可预测
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	fs.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return fs
}

func TestFileStorage_CreateAndList(t *testing.T) {
	fs := newTestStorage(t)
	ctx := context.Background()

	for _, name := range []string{"Zed", "Aria", "Borin"} {
		c := &models.Character{Name: name, Profile: name + " profile"}
		require.NoError(t, fs.CreateCharacter(ctx, c))
		assert.True(t, ValidID(c.ID))
		assert.False(t, c.CreatedAt.IsZero())
	}

	list, err := fs.ListCharacters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Zed", list[0].Name)
	assert.Equal(t, "Aria", list[1].Name)
	assert.Equal(t, "Borin", list[2].Name)
}

func TestFileStorage_UpdateKeepsIdentity(t *testing.T) {
	fs := newTestStorage(t)
	ctx := context.Background()

	c := &models.Character{Name: "Aria", Profile: "Scout"}
	require.NoError(t, fs.CreateCharacter(ctx, c))
	id, created := c.ID, c.CreatedAt

	upd := &models.Character{ID: id, Name: "Aria Vale", Profile: "Captain", CreatedAt: time.Now()}
	require.NoError(t, fs.UpdateCharacter(ctx, upd))
	assert.Equal(t, id, upd.ID)
	assert.True(t, created.Equal(upd.CreatedAt))

	got, err := fs.GetCharacter(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Aria Vale", got.Name)
	assert.Equal(t, "Captain", got.Profile)
}

func TestFileStorage_DeleteRemovesExactlyOne(t *testing.T) {
	fs := newTestStorage(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		c := &models.Character{Name: name, Profile: "p"}
		require.NoError(t, fs.CreateCharacter(ctx, c))
		ids = append(ids, c.ID)
	}

	require.NoError(t, fs.DeleteCharacter(ctx, ids[1]))

	list, err := fs.ListCharacters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[0], list[0].ID)
	assert.Equal(t, ids[2], list[1].ID)
}

func TestFileStorage_NotFound(t *testing.T) {
	fs := newTestStorage(t)
	ctx := context.Background()
	missing := "00000000-0000-0000-0000-000000000001"

	_, err := fs.GetCharacter(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	err = fs.UpdateCharacter(ctx, &models.Character{ID: missing, Name: "x", Profile: "y"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, fs.DeleteCharacter(ctx, missing), ErrNotFound)

	// 非UUID格式不能逃逸出存储目录
	assert.ErrorIs(t, fs.DeleteCharacter(ctx, "../../etc/passwd"), ErrNotFound)
}

func TestFileStorage_IgnoresForeignFiles(t *testing.T) {
	fs := newTestStorage(t)
	ctx := context.Background()

	dir := filepath.Join(fs.BaseDir, charactersDir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	list, err := fs.ListCharacters(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, fs.Ping(ctx))
}

func TestFileStorage_CancelledContext(t *testing.T) {
	fs := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fs.CreateCharacter(ctx, &models.Character{Name: "x", Profile: "y"})
	assert.ErrorIs(t, err, context.Canceled)
}
