package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStandardFileType(t *testing.T) {
	assert.True(t, IsStandardFileType("essay.pdf"))
	assert.True(t, IsStandardFileType("ESSAY.DOCX"))
	assert.True(t, IsStandardFileType("notes.tex"))
	assert.False(t, IsStandardFileType("archive.zip"))
	assert.False(t, IsStandardFileType("binary"))
	assert.False(t, IsStandardFileType(""))
}

func TestComputeIdentifier(t *testing.T) {
	// Known SHA-1 of "hello"
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", ComputeIdentifier([]byte("hello")))
	assert.NotEqual(t, ComputeIdentifier([]byte("a")), ComputeIdentifier([]byte("b")))
}

func TestWriteTempFileRoundTrip(t *testing.T) {
	setupTestDb(t)

	path, err := WriteTempFile("My Essay (final).pdf", []byte("content"))
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)

	name := filepath.Base(path)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotContains(t, name, " ")
}

func TestWriteTempFileCapsLongNames(t *testing.T) {
	setupTestDb(t)

	long := strings.Repeat("x", 400) + ".docx"
	path, err := WriteTempFile(long, []byte("content"))
	require.NoError(t, err)
	defer os.Remove(path)

	name := filepath.Base(path)
	assert.LessOrEqual(t, len(name), 180)
	assert.True(t, strings.HasSuffix(name, ".docx"))
}

func TestWriteTempFileStripsUnsafeCharacters(t *testing.T) {
	setupTestDb(t)

	path, err := WriteTempFile(`../..\evil:name?.pdf`, []byte("content"))
	require.NoError(t, err)
	defer os.Remove(path)

	name := filepath.Base(path)
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, `\`)
	assert.NotContains(t, name, ":")
	assert.NotContains(t, name, "?")
	assert.Equal(t, filepath.Join(os.TempDir(), "plagiarism_drillbit"), filepath.Dir(path))
}
