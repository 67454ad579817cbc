package invoice

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestResolveFindsImage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "abc123.jpg", "jpeg-bytes")

	att, ok, err := Resolve(dir, "abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", att.MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), att.Binary)
}

func TestResolvePrefersImageOverPDF(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "abc123.pdf", "pdf-bytes")
	writeFile(t, dir, "abc123.png", "png-bytes")

	att, ok, err := Resolve(dir, "abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "image/png", att.MimeType)
}

func TestResolveSearchesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("2024", "03", "abc123.jpeg"), "nested")

	att, ok, err := Resolve(dir, "abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", att.MimeType)
}

func TestResolveNoMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "other.jpg", "x")

	_, ok, err := Resolve(dir, "abc123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveEmptyDir(t *testing.T) {
	_, ok, err := Resolve("", "abc123")
	require.NoError(t, err)
	assert.False(t, ok)
}
