package main

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/pkg/errors"
)

// worldBound covers every tile at every zoom in web mercator, pulled in a
// hair from the poles so maptile.At stays on the grid.
var worldBound = orb.Bound{Min: orb.Point{-180, -85.0511}, Max: orb.Point{180, 85.0511}}

// TileMap 瓦片地图元数据, read from the mbtiles metadata table
type TileMap struct {
	Name        string
	Description string
	Min         int
	Max         int
	Format      string
	Bounds      orb.Bound
}

// Covers reports whether t lies inside the zoom range and the tile grid.
func (m *TileMap) Covers(t maptile.Tile) bool {
	if int(t.Z) < m.Min || int(t.Z) > m.Max {
		return false
	}
	n := uint64(1) << t.Z
	return uint64(t.X) < n && uint64(t.Y) < n
}

// loadTileMap reads the metadata table. Every key is optional; a missing or
// unparsable one keeps its default.
func loadTileMap(ctx context.Context, db *sql.DB) (*TileMap, error) {
	m := &TileMap{Min: ZoomMin, Max: ZoomMax, Bounds: worldBound}

	rows, err := db.QueryContext(ctx, "SELECT name, value FROM metadata")
	if err != nil {
		return nil, errors.Wrap(err, "query metadata")
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, errors.Wrap(err, "scan metadata")
		}
		value = strings.TrimSpace(value)
		switch name {
		case "name":
			m.Name = value
		case "description":
			m.Description = value
		case "format":
			m.Format = strings.ToLower(value)
		case "minzoom":
			if z, err := strconv.Atoi(value); err == nil && z >= ZoomMin {
				m.Min = z
			}
		case "maxzoom":
			if z, err := strconv.Atoi(value); err == nil && z <= ZoomMax {
				m.Max = z
			}
		case "bounds":
			if b, ok := parseBounds(value); ok {
				m.Bounds = b
			}
		}
	}
	return m, errors.Wrap(rows.Err(), "read metadata")
}

// parseBounds reads "minlon,minlat,maxlon,maxlat".
func parseBounds(s string) (orb.Bound, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, false
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, false
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, false
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, true
}
