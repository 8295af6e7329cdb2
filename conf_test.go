package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConf(t *testing.T) {
	path := writeConf(t, `
[server]
port = 3000

[output]
logDir = "logs"

[[stores]]
alias = "germany-latest"
path = "../tiles/germany-latest.mbtiles"
kind = "vector"

[[stores]]
alias = "relief"
path = "../tiles/relief.mbtiles"
kind = "raster"
driver = "spatialite"
coverage = "germany.geojson"
`)
	c, err := LoadConf(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, c.Server.Port)
	assert.Equal(t, "*", c.Server.AllowOrigin)
	assert.Equal(t, "logs", c.Output.LogDir)
	assert.True(t, c.Output.OutputTerminal)
	assert.Equal(t, 4, c.Task.Workers)
	assert.Equal(t, 64, c.Task.BufSize)
	assert.Equal(t, []StoreConf{
		{Alias: "germany-latest", Path: "../tiles/germany-latest.mbtiles", Kind: "vector"},
		{Alias: "relief", Path: "../tiles/relief.mbtiles", Kind: "raster", Driver: "spatialite", Coverage: "germany.geojson"},
	}, c.Stores)
}

func TestLoadConfEnvOverride(t *testing.T) {
	path := writeConf(t, `
[[stores]]
alias = "demo"
path = "demo.mbtiles"
`)
	t.Setenv("TILESERVER_SERVER_PORT", "8088")

	c, err := LoadConf(path)
	require.NoError(t, err)
	assert.Equal(t, 8088, c.Server.Port)
}

func TestLoadConfErrors(t *testing.T) {
	_, err := LoadConf(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadConf(writeConf(t, "[server]\nport = 3000\n"))
	assert.Error(t, err)

	_, err = LoadConf(writeConf(t, "this is = = not toml"))
	assert.Error(t, err)
}
