package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quitflow/internal/store"
)

func seedTestDatabase(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "quitflow.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSeedCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{validPackDir, "--db", dbPath})

	require.NoError(t, cmd.Execute())
	return dbPath
}

func TestSeedCreatesQuestions(t *testing.T) {
	dbPath := seedTestDatabase(t)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	count, err := st.CountQuestions(context.Background(), "onboarding")
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestSeedIsIdempotent(t *testing.T) {
	dbPath := seedTestDatabase(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSeedCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{validPackDir, "--db", dbPath})
	require.NoError(t, cmd.Execute())

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	count, err := st.CountQuestions(context.Background(), "onboarding")
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestSeedRejectsBrokenPack(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "quitflow.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSeedCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir(), "--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
