package main

import (
	"context"
	"database/sql"

	"github.com/paulmach/orb/maptile"
	"github.com/pkg/errors"
)

// Fetch does a single point lookup for the stored (bottom-left origin) row.
// Addresses outside the archive's zoom range or tile grid are not found
// without touching the archive. Read failures match ErrStoreRead, keep the
// driver error as their cause and are never retried here. A request whose
// context is already done gets the context error instead.
func (s *TileStore) Fetch(ctx context.Context, z maptile.Zoom, x uint32, storedRow int64) ([]byte, error) {
	if int(z) < s.Meta.Min || int(z) > s.Meta.Max {
		return nil, ErrTileNotFound
	}
	if storedRow < 0 || uint64(storedRow) >= uint64(1)<<z || uint64(x) >= uint64(1)<<z {
		return nil, ErrTileNotFound
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	var data []byte
	err := s.get.QueryRowContext(ctx, int64(z), int64(x), storedRow).Scan(&data)
	switch {
	case err == sql.ErrNoRows:
		return nil, ErrTileNotFound
	case err != nil && ctx.Err() != nil:
		return nil, errors.WithStack(ctx.Err())
	case err != nil:
		return nil, storeReadError(err, "store %s z=%d x=%d row=%d", s.Alias, z, x, storedRow)
	}
	return data, nil
}
