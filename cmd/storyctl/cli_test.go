package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/auth"
)

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_BACKEND", "file")
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("AUTH_SECRET_KEY", "")
	return filepath.Join(dir, "missing.yaml")
}

func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCharactersCommands(t *testing.T) {
	cfgPath := setupCLI(t)

	out, err := runCLI(t, cfgPath, "characters", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No characters yet.")

	out, err = runCLI(t, cfgPath, "characters", "add", "--name", "Zed", "--profile", "Drifter")
	require.NoError(t, err)
	zedID := strings.TrimSpace(out)
	assert.NotEmpty(t, zedID)

	_, err = runCLI(t, cfgPath, "characters", "add", "--name", "aria", "--profile", "Scout")
	require.NoError(t, err)

	out, err = runCLI(t, cfgPath, "characters", "list", "--order", "name")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "aria"), strings.Index(out, "Zed"))

	_, err = runCLI(t, cfgPath, "characters", "add", "--name", "Nobody")
	assert.Error(t, err)

	out, err = runCLI(t, cfgPath, "characters", "rm", zedID)
	require.NoError(t, err)
	assert.Contains(t, out, "removed "+zedID)

	_, err = runCLI(t, cfgPath, "characters", "rm", zedID)
	assert.Error(t, err)

	_, err = runCLI(t, cfgPath, "characters", "list", "--order", "random")
	assert.Error(t, err)
}

func TestGenerateCommand(t *testing.T) {
	cfgPath := setupCLI(t)

	out, err := runCLI(t, cfgPath, "characters", "add", "--name", "Borin", "--profile", "Smith")
	require.NoError(t, err)
	borinID := strings.TrimSpace(out)
	out, err = runCLI(t, cfgPath, "characters", "add", "--name", "Aria", "--profile", "Scout")
	require.NoError(t, err)
	ariaID := strings.TrimSpace(out)

	out, err = runCLI(t, cfgPath, "generate",
		"-d", "Duel at dawn", "--duration", "10",
		"--character", borinID, "--character", ariaID,
		"--camera", "Close-up", "--lighting", "Golden Hour")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0],
		"1. Featuring characters: Aria, Borin. Scene: Duel at dawn. Camera: Close-up. Lighting: Golden Hour. Duration: 10 seconds."))
	assert.True(t, strings.HasPrefix(lines[3], "4. "))

	_, err = runCLI(t, cfgPath, "generate", "-d", "   ")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	cfgPath := setupCLI(t)

	out, err := runCLI(t, cfgPath, "token", "--user", "writer-1")
	require.NoError(t, err)

	secret, err := auth.ResolveSecret("", true)
	require.NoError(t, err)
	tok, err := auth.ParseToken(strings.TrimSpace(out), &auth.TokenConfig{Secret: secret})
	require.NoError(t, err)
	assert.Equal(t, "writer-1", tok.UserID)

	t.Setenv("DEBUG_MODE", "false")
	_, err = runCLI(t, cfgPath, "token", "--user", "writer-1")
	assert.Error(t, err)
}

func TestMigrateRequiresPostgres(t *testing.T) {
	cfgPath := setupCLI(t)

	_, err := runCLI(t, cfgPath, "migrate", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
