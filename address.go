package main

import (
	"net/http"
	"strconv"

	"github.com/paulmach/orb/maptile"
	"github.com/pkg/errors"
)

// tileRoute is matched by http.ServeMux, which extracts all four segments at once.
const tileRoute = "GET /{alias}/{zoom}/{column}/{row}"

// ParseAddress validates the four path segments of a tile request. Bounds
// against the zoom level are left to the store.
func ParseAddress(alias, zoom, column, row string) (Address, error) {
	if alias == "" {
		return Address{}, errors.Wrap(ErrMalformedAddress, "empty alias")
	}
	z, err := parseSegment("zoom", zoom)
	if err != nil {
		return Address{}, err
	}
	x, err := parseSegment("column", column)
	if err != nil {
		return Address{}, err
	}
	y, err := parseSegment("row", row)
	if err != nil {
		return Address{}, err
	}
	return Address{
		Alias: alias,
		Tile:  maptile.New(x, y, maptile.Zoom(z)),
	}, nil
}

// addressFromRequest reads the segments captured by tileRoute.
func addressFromRequest(r *http.Request) (Address, error) {
	return ParseAddress(r.PathValue("alias"), r.PathValue("zoom"), r.PathValue("column"), r.PathValue("row"))
}

func parseSegment(name, s string) (uint32, error) {
	// ParseUint rejects signs, blanks and anything but decimal digits
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedAddress, "%s %q", name, s)
	}
	return uint32(v), nil
}
