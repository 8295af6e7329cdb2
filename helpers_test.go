package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fixtureTile struct {
	z, x, row int64
	data      []byte
}

// newArchive writes an mbtiles file with the given metadata and tiles.
func newArchive(t *testing.T, meta map[string]string, tiles ...fixtureTile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.mbtiles")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE metadata (name text, value text);
		CREATE TABLE tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob);
		CREATE UNIQUE INDEX tile_index ON tiles (zoom_level, tile_column, tile_row);`)
	require.NoError(t, err)
	for k, v := range meta {
		_, err = db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", k, v)
		require.NoError(t, err)
	}
	for _, tile := range tiles {
		_, err = db.Exec("INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)",
			tile.z, tile.x, tile.row, tile.data)
		require.NoError(t, err)
	}
	return path
}

func vectorMeta() map[string]string {
	return map[string]string{"name": "demo", "format": "pbf", "minzoom": "0", "maxzoom": "14"}
}

func rasterMeta() map[string]string {
	return map[string]string{"name": "relief", "format": "png", "minzoom": "0", "maxzoom": "10"}
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func pngTile(s string) []byte {
	return append(append([]byte{}, pngMagic...), s...)
}

// newTestRegistry opens the given stores and closes them when the test ends.
func newTestRegistry(t *testing.T, confs ...StoreConf) *Registry {
	t.Helper()
	reg, err := NewRegistry(context.Background(), confs)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

// captureLog records what the package logger emits until the test ends.
func captureLog(t *testing.T) *test.Hook {
	t.Helper()
	old := log.ReplaceHooks(make(logrus.LevelHooks))
	t.Cleanup(func() { log.ReplaceHooks(old) })
	return test.NewLocal(log)
}
