package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	token, expiresAt, err := signer.Generate("job-1", "job-1/report.csv")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	jobID, relPath, parsedExp, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "job-1/report.csv", relPath)
	assert.Equal(t, expiresAt.Unix(), parsedExp.Unix())
}

func TestSignerRejectsTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)

	token, _, err := signer.Generate("job-1", "job-1/report.csv")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token+"x", false)
	assert.Error(t, err)

	other := NewSignedURLSigner("other-secret", time.Hour)
	_, _, _, err = other.Parse(token, false)
	assert.Error(t, err)
}

func TestSignerExpiry(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond)

	token, _, err := signer.Generate("job-1", "job-1/report.pdf")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, _, _, err = signer.Parse(token, false)
	assert.Error(t, err)

	jobID, relPath, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "job-1/report.pdf", relPath)
}

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("job-1/report.csv", []byte("id,title\n"))
	require.NoError(t, err)

	file, err := store.Open("job-1/report.csv")
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "id,title\n", string(data))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.csv", []byte("x"))
	assert.Error(t, err)

	_, err = store.Open("/etc/passwd")
	assert.Error(t, err)
}

func TestLocalStorageCleanup(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old/report.csv", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("fresh/report.csv", []byte("fresh"))
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old", "report.csv"), stale, stale))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("old", "report.csv")}, deleted)

	_, err = store.Open("fresh/report.csv")
	assert.NoError(t, err)
}
