package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	// mbtiles are plain sqlite files; spatialite is the same driver with
	// the extension loaded and is selectable per store
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	_ "github.com/shaxbee/go-spatialite"
)

// Supported database/sql drivers
const (
	DriverSqlite     = "sqlite3"
	DriverSpatialite = "spatialite"
)

const selectTile = `SELECT tile_data FROM tiles
	WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`

// TileStore 瓦片存储, one read-only mbtiles archive
type TileStore struct {
	Alias    string
	Path     string
	Kind     Kind
	Driver   string
	Coverage string
	Meta     *TileMap

	db  *sql.DB
	get *sql.Stmt
}

// OpenStore opens the archive read-only and reads its metadata. Any failure
// is wrapped in ErrStoreUnavailable.
func OpenStore(ctx context.Context, sc StoreConf) (*TileStore, error) {
	kind, err := ParseKind(sc.Kind)
	if err != nil {
		return nil, errors.Wrapf(ErrStoreUnavailable, "store %s: %v", sc.Alias, err)
	}
	driver := sc.Driver
	if driver == "" {
		driver = DriverSqlite
	}
	if driver != DriverSqlite && driver != DriverSpatialite {
		return nil, errors.Wrapf(ErrStoreUnavailable, "store %s: unknown driver %q", sc.Alias, driver)
	}
	if _, err := os.Stat(sc.Path); err != nil {
		return nil, errors.Wrapf(ErrStoreUnavailable, "store %s: %v", sc.Alias, err)
	}

	db, err := sql.Open(driver, readOnlyDSN(sc.Path))
	if err != nil {
		return nil, errors.Wrapf(ErrStoreUnavailable, "store %s: %v", sc.Alias, err)
	}
	s := &TileStore{
		Alias:    sc.Alias,
		Path:     sc.Path,
		Driver:   driver,
		Coverage: sc.Coverage,
		db:       db,
	}
	if err := s.init(ctx, kind); err != nil {
		db.Close()
		return nil, errors.Wrapf(ErrStoreUnavailable, "store %s (%s): %v", sc.Alias, sc.Path, err)
	}
	return s, nil
}

// readOnlyDSN builds a sqlite URI. The path is escaped so that '?', '#' and
// '%' in file names stay part of the path.
func readOnlyDSN(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
}

func (s *TileStore) init(ctx context.Context, kind Kind) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	meta, err := loadTileMap(ctx, s.db)
	if err != nil {
		return err
	}
	s.Meta = meta
	if meta.Min > meta.Max {
		log.Warnf("store %s has minzoom %d above maxzoom %d, every tile will be not found", s.Alias, meta.Min, meta.Max)
	}

	inferred, known := KindOfFormat(meta.Format)
	switch {
	case kind == "" && !known:
		return fmt.Errorf("no kind configured and metadata format %q does not imply one", meta.Format)
	case kind == "":
		kind = inferred
	case known && kind != inferred:
		log.Warnf("store %s is declared %s but its metadata format is %s", s.Alias, kind, meta.Format)
	}
	s.Kind = kind

	s.get, err = s.db.PrepareContext(ctx, selectTile)
	return err
}

// Close releases the read handle.
func (s *TileStore) Close() error {
	if s.get != nil {
		s.get.Close()
	}
	return s.db.Close()
}

// openStore is swapped in tests to observe the stores NewRegistry opens.
var openStore = OpenStore

// Registry 存储注册表. It is filled once by NewRegistry and never mutated,
// so concurrent Resolve calls need no locking.
type Registry struct {
	stores map[string]*TileStore
}

// NewRegistry opens every configured store. The first failure closes what
// was already opened and is returned; there is no partial registry.
func NewRegistry(ctx context.Context, confs []StoreConf) (*Registry, error) {
	r := &Registry{stores: make(map[string]*TileStore, len(confs))}
	for _, sc := range confs {
		if err := validateStoreConf(sc, r.stores); err != nil {
			r.Close()
			return nil, err
		}
		s, err := openStore(ctx, sc)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.stores[sc.Alias] = s
		log.Infof("store %s: %s (%s, zoom %d-%d) from %s", s.Alias, s.Meta.Name, s.Kind, s.Meta.Min, s.Meta.Max, s.Path)
	}
	return r, nil
}

// A declared alias without an archive is a startup error, never a silently
// unrouted alias.
func validateStoreConf(sc StoreConf, seen map[string]*TileStore) error {
	switch {
	case strings.TrimSpace(sc.Alias) == "":
		return errors.Wrap(ErrStoreUnavailable, "store with empty alias")
	case strings.Contains(sc.Alias, "/"):
		return errors.Wrapf(ErrStoreUnavailable, "store alias %q contains a slash", sc.Alias)
	case strings.TrimSpace(sc.Path) == "":
		return errors.Wrapf(ErrStoreUnavailable, "store %s has no backing path", sc.Alias)
	}
	if _, dup := seen[sc.Alias]; dup {
		return errors.Wrapf(ErrStoreUnavailable, "duplicate store alias %s", sc.Alias)
	}
	return nil
}

// Resolve looks up a store by alias.
func (r *Registry) Resolve(alias string) (*TileStore, error) {
	s, ok := r.stores[alias]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStore, "alias %q", alias)
	}
	return s, nil
}

// Stores returns all stores ordered by alias.
func (r *Registry) Stores() []*TileStore {
	list := make([]*TileStore, 0, len(r.stores))
	for _, s := range r.stores {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Alias < list[j].Alias })
	return list
}

// Close closes every store handle and returns the first error.
func (r *Registry) Close() error {
	var first error
	for alias, s := range r.stores {
		if err := s.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close store %s", alias)
		}
	}
	return first
}
