package main

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// ZoomMin 最小级别
const ZoomMin = 0

// ZoomMax 最大级别, tile rows at this level still fit an int64 without overflow
const ZoomMax = 32

// Kind 存储类型
type Kind string

// Store kinds
const (
	Vector Kind = "vector"
	Raster Kind = "raster"
)

// Constants representing TileFormat types
const (
	GZIP string = "gzip" // encoding = gzip
	ZLIB        = "zlib" // encoding = deflate
	PNG         = "png"
	JPG         = "jpg"
	JPEG        = "jpeg"
	PBF         = "pbf"
	WEBP        = "webp"
)

// ParseKind accepts the configured kind, case-insensitive. Empty is allowed
// and means the kind comes from the archive metadata.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Vector, Raster, "":
		return k, nil
	default:
		return "", fmt.Errorf("unknown store kind %q (supported: vector, raster)", s)
	}
}

// KindOfFormat maps an MBTiles metadata format to a store kind.
func KindOfFormat(format string) (Kind, bool) {
	switch strings.ToLower(format) {
	case PBF:
		return Vector, true
	case PNG, JPG, JPEG, WEBP:
		return Raster, true
	}
	return "", false
}

// Framing 响应头
type Framing struct {
	ContentType     string
	ContentEncoding string
}

// FramingFor is a pure function of the store kind. Vector tiles come out of
// the tiling toolchain already gzipped, so they are declared, not re-encoded.
func FramingFor(kind Kind) Framing {
	if kind == Vector {
		return Framing{ContentType: "application/octet-stream", ContentEncoding: GZIP}
	}
	return Framing{ContentType: "image/png"}
}

// Address 请求地址
type Address struct {
	Alias string
	Tile  maptile.Tile
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", a.Alias, a.Tile.Z, a.Tile.X, a.Tile.Y)
}

// toStoredRow flips a top-left origin row into the bottom-left origin row
// MBTiles stores. ok is false for zooms past ZoomMax.
func toStoredRow(z maptile.Zoom, y uint32) (row int64, ok bool) {
	if z > ZoomMax {
		return 0, false
	}
	return int64(1)<<z - 1 - int64(y), true
}
