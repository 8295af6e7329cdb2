package main

import (
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("demo", "14", "8600", "5000")
	require.NoError(t, err)
	assert.Equal(t, "demo", addr.Alias)
	assert.Equal(t, maptile.New(8600, 5000, 14), addr.Tile)
	assert.Equal(t, "demo/14/8600/5000", addr.String())

	// no bounds checks at parse time
	addr, err = ParseAddress("demo", "2", "900", "900")
	require.NoError(t, err)
	assert.Equal(t, uint32(900), addr.Tile.X)
}

func TestParseAddressMalformed(t *testing.T) {
	tests := []struct {
		name           string
		alias, z, x, y string
	}{
		{"empty alias", "", "1", "1", "1"},
		{"non-numeric zoom", "demo", "abc", "8600", "5000"},
		{"non-numeric column", "demo", "14", "x", "5000"},
		{"non-numeric row", "demo", "14", "8600", "5000.pbf"},
		{"missing row", "demo", "14", "8600", ""},
		{"negative column", "demo", "14", "-1", "5000"},
		{"signed zoom", "demo", "+14", "8600", "5000"},
		{"fraction", "demo", "1.5", "0", "0"},
		{"overflow", "demo", "14", "4294967296", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.alias, tt.z, tt.x, tt.y)
			assert.True(t, errors.Is(err, ErrMalformedAddress), "got %v", err)
		})
	}
}
