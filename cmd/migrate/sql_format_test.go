package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoMigrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	// this file lives in cmd/migrate/, so repo root is ../..
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
}

func readMigrations(t *testing.T) map[string]string {
	t.Helper()
	dir := repoMigrationsDir(t)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	out := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(b)
	}
	require.NotEmpty(t, out)
	return out
}

func TestSQLMigrations_HaveGooseDirectives(t *testing.T) {
	for name, sql := range readMigrations(t) {
		assert.Contains(t, sql, "-- +goose Up", name)
		assert.Contains(t, sql, "-- +goose Down", name)
		assert.Less(t, strings.Index(sql, "-- +goose Up"), strings.Index(sql, "-- +goose Down"), name)
	}
}

func TestSQLMigrations_EnforceLibraryConstraints(t *testing.T) {
	all := ""
	for _, sql := range readMigrations(t) {
		all += sql
	}
	assert.Contains(t, all, "available_copies >= 0 AND available_copies <= total_copies")
	assert.Contains(t, all, "UNIQUE (user_id, book_id)")
	assert.Contains(t, all, "score BETWEEN 1 AND 5")
	assert.Contains(t, all, "isbn             VARCHAR(17)  NOT NULL UNIQUE")
}
