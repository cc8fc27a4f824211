package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepositoryAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	repo, err := NewFileRepository(path)
	require.NoError(t, err)

	first := PropertyRecord{Title: "A", Currency: "AED", URL: "https://example.com/a"}
	second := PropertyRecord{Title: "B", Currency: "AED", URL: "https://example.com/b", Price: floatPtr(100)}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))
	repo.Close()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var got []PropertyRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record PropertyRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		got = append(got, record)
	}

	require.Len(t, got, 2)
	assert.Equal(t, first, got[0])
	assert.Equal(t, second, got[1])
}

func TestFileRepositoryReopensForAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	repo, err := NewFileRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), PropertyRecord{Title: "A", URL: "https://example.com/a"}))
	repo.Close()

	repo, err = NewFileRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), PropertyRecord{Title: "B", URL: "https://example.com/b"}))
	repo.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, len(splitLines(data)))
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	return lines
}
