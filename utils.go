package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/pkg/errors"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
)

// checkFraming reports a payload that the framing for kind would mislabel.
func checkFraming(kind Kind, data []byte) error {
	switch {
	case len(data) == 0:
		return fmt.Errorf("empty payload")
	case kind == Vector && !bytes.HasPrefix(data, gzipMagic):
		return fmt.Errorf("vector payload is not gzip")
	case kind == Raster && !bytes.HasPrefix(data, pngMagic):
		return fmt.Errorf("raster payload is not png")
	}
	return nil
}

// CoverageCollection loads the store's coverage GeoJSON, nil when none is configured.
func (s *TileStore) CoverageCollection() (orb.Collection, error) {
	if s.Coverage == "" {
		return nil, nil
	}
	return loadCollection(s.Coverage)
}

func loadCollection(path string) (orb.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read file")
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to unmarshal features of %s", path)
	}

	var collection orb.Collection
	for _, f := range fc.Features {
		collection = append(collection, f.Geometry)
	}

	return collection, nil
}

// boundCount counts the tiles a bound touches at zoom z.
func boundCount(b orb.Bound, z maptile.Zoom) int64 {
	last := int64(1)<<z - 1
	clamp := func(v uint32) int64 {
		if int64(v) > last {
			return last
		}
		return int64(v)
	}
	b = clampBound(b)
	topLeft := maptile.At(orb.Point{b.Min[0], b.Max[1]}, z)
	bottomRight := maptile.At(orb.Point{b.Max[0], b.Min[1]}, z)
	w := clamp(bottomRight.X) - clamp(topLeft.X) + 1
	h := clamp(bottomRight.Y) - clamp(topLeft.Y) + 1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// clampBound keeps a bound inside the web mercator square.
func clampBound(b orb.Bound) orb.Bound {
	clamp := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	w := worldBound
	for _, p := range []*orb.Point{&b.Min, &b.Max} {
		p[0] = clamp(p[0], w.Min[0], w.Max[0])
		p[1] = clamp(p[1], w.Min[1], w.Max[1])
	}
	return b
}
