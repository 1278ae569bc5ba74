package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDocument(t *testing.T) {
	assert.Nil(t, splitDocument("  \n ", 1000, 200))
	assert.Equal(t, []string{"short policy"}, splitDocument(" short policy\n", 1000, 200))

	text := strings.Repeat("abcdefghij", 250) // 2500 runes
	chunks := splitDocument(text, 1000, 200)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1000, len(chunks[0]))
	assert.Equal(t, 1000, len(chunks[1]))
	assert.Equal(t, 900, len(chunks[2]))
	assert.Equal(t, chunks[0][800:], chunks[1][:200])
	assert.Equal(t, chunks[1][800:], chunks[2][:200])
}

func TestSplitDocumentCountsRunes(t *testing.T) {
	text := strings.Repeat("ш", 1500)
	chunks := splitDocument(text, 1000, 200)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1000, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 700, utf8.RuneCountInString(chunks[1]))
}

func TestFindDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "grid"), 0o755))
	for _, name := range []string{"reserve.md", "grid/siting.TXT", "scan.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	docs, err := findDocuments(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "reserve.md"), filepath.Join(dir, "grid", "siting.TXT")}, docs)

	_, err = findDocuments(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
