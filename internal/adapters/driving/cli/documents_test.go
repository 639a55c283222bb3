package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Index Tests

func TestIndexCmd_Use(t *testing.T) {
	assert.Equal(t, "index [path|url]", indexCmd.Use)
}

func TestIndexCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := runCommand("index")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestIndexCmd_File(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeTempFile(t, t.TempDir(), "policy.txt", "The grace period is thirty days.")

	out, err := runCommand("index", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed policy.txt: 4 chunks")
	require.Len(t, mocks.document.ingested, 1)
	raw := mocks.document.ingested[0]
	assert.Equal(t, "policy.txt", raw.Name)
	assert.Equal(t, domain.FileTypeText, raw.Type)
	assert.Equal(t, "The grace period is thirty days.", string(raw.Content))
}

func TestIndexCmd_FileWithName(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeTempFile(t, t.TempDir(), "policy.txt", "text")

	out, err := runCommand("index", "--name", "health-policy", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed health-policy: 4 chunks")
	assert.Equal(t, "health-policy", mocks.document.ingested[0].Name)
}

func TestIndexCmd_UnsupportedExtension(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	path := writeTempFile(t, t.TempDir(), "notes.md", "# notes")

	_, err := runCommand("index", path)

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Empty(t, mocks.document.ingested)
}

func TestIndexCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand("index", filepath.Join(t.TempDir(), "missing.pdf"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIndexCmd_IngestError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.document.ingestErr = domain.ErrFileTooLarge
	path := writeTempFile(t, t.TempDir(), "policy.txt", "text")

	_, err := runCommand("index", path)

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestIndexCmd_Directory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	dir := t.TempDir()
	writeTempFile(t, dir, "a.txt", "first")
	writeTempFile(t, dir, "b.txt", "second")
	writeTempFile(t, dir, "skip.md", "ignored")

	out, err := runCommand("index", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 documents from "+dir)
	assert.Len(t, mocks.document.ingested, 2)
}

func TestIndexCmd_DirectoryRejectsName(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand("index", "--name", "x", t.TempDir())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexCmd_URL(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("index", "https://example.com/files/policy.pdf?sig=abc")

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed policy.pdf: 7 chunks")
	assert.Equal(t, []string{"https://example.com/files/policy.pdf?sig=abc"}, mocks.document.urls)
}

func TestIndexCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	documentService = nil

	_, err := runCommand("index", "policy.pdf")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "document service not configured")
}

// Delete Tests

func TestDeleteCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("delete", "policy.pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted policy.pdf")
	assert.Equal(t, []string{"policy.pdf"}, mocks.document.deleted)
}

func TestDeleteCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.document.deleteErr = errors.New("index unavailable")

	_, err := runCommand("delete", "policy.pdf")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "deleting policy.pdf: index unavailable")
}

// Stats Tests

func TestStatsCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Vector Index")
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "384")
	assert.Contains(t, out, "25.0%")
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.com/a.pdf"))
	assert.True(t, isURL("HTTP://example.com/a.pdf"))
	assert.False(t, isURL("ftp://example.com/a.pdf"))
	assert.False(t, isURL("/tmp/a.pdf"))
}

func TestReadDocument(t *testing.T) {
	path := writeTempFile(t, t.TempDir(), "claim.EML", "From: a@b.c")

	raw, err := readDocument(path)

	require.NoError(t, err)
	assert.Equal(t, "claim.EML", raw.Name)
	assert.Equal(t, domain.FileTypeEmail, raw.Type)
}
