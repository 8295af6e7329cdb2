package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// VerifyAll checks every store in the registry and returns the reports.
// The error is non-nil if any store could not be read or holds bad tiles.
// Each task registers its abort with exit when exit is not nil.
func VerifyAll(ctx context.Context, reg *Registry, workers, bufSize int, exit *SafeExit) ([]*Report, error) {
	start := time.Now()
	var reports []*Report
	var bad []string
	for _, store := range reg.Stores() {
		task := NewTask(store, workers, bufSize)
		if exit != nil {
			exit.Register(task.AbortFun)
		}

		report, err := task.Verify(ctx)
		if err != nil {
			return reports, err
		}
		report.Log()
		reports = append(reports, report)
		if !report.OK() {
			bad = append(bad, store.Alias)
		}
	}
	log.Printf("%.3fs finished...", time.Since(start).Seconds())
	if len(bad) > 0 {
		return reports, fmt.Errorf("stores with invalid tiles: %v", bad)
	}
	return reports, nil
}

// ZoomCoverage 级别覆盖
type ZoomCoverage struct {
	Zoom     int
	Stored   int64
	Expected int64
}

// Report 校验结果
type Report struct {
	TaskID  string
	Alias   string
	Kind    Kind
	Total   int64
	Invalid int64 // payload does not match the store's framing
	Outside int64 // address outside the metadata zoom range or tile grid
	Zooms   []ZoomCoverage
}

// OK reports whether every stored tile passed.
func (r *Report) OK() bool {
	return r.Invalid == 0 && r.Outside == 0
}

func (r *Report) Log() {
	log.Infof("Task %s store %s (%s): %d tiles, %d invalid, %d outside", r.TaskID, r.Alias, r.Kind, r.Total, r.Invalid, r.Outside)
	for _, z := range r.Zooms {
		log.Infof("zoom: %d, tiles: %d / %d", z.Zoom, z.Stored, z.Expected)
	}
}

// storedTile is one row of the tiles table with its row already flipped
// back to the top-left origin.
type storedTile struct {
	T maptile.Tile
	C []byte
}

// Task 校验任务, walks one archive with a bounded pool of checkers
type Task struct {
	ID          string
	Store       *TileStore
	Total       int64
	Bar         *pb.ProgressBar
	workerCount int
	bufSize     int
	tileWG      sync.WaitGroup
	abort       chan struct{}
	abortOnce   sync.Once
	workers     chan struct{}

	invalid int64
	outside int64
	mu      sync.Mutex
	stored  map[maptile.Zoom]int64
}

// NewTask 创建校验任务
func NewTask(store *TileStore, workers, bufSize int) *Task {
	if workers <= 0 {
		workers = 1
	}
	if bufSize < 0 {
		bufSize = 0
	}
	id, _ := shortid.Generate()
	return &Task{
		ID:          id,
		Store:       store,
		workerCount: workers,
		bufSize:     bufSize,
		abort:       make(chan struct{}),
		workers:     make(chan struct{}, workers),
		stored:      make(map[maptile.Zoom]int64),
	}
}

// 结束任务
func (task *Task) AbortFun() {
	task.abortOnce.Do(func() { close(task.abort) })
}

// Verify reads every tile of the store once.
func (task *Task) Verify(ctx context.Context) (*Report, error) {
	store := task.Store
	log.Infof("Task %s store: %s starting", task.ID, store.Alias)

	if err := store.db.QueryRowContext(ctx, "SELECT count(*) FROM tiles").Scan(&task.Total); err != nil {
		return nil, storeReadError(err, "store %s count tiles", store.Alias)
	}
	task.Bar = pb.New64(task.Total).Prefix(fmt.Sprintf("Store %s : ", store.Alias)).Postfix("\n")
	task.Bar.SetRefreshRate(time.Second)
	task.Bar.Output = log.Out
	task.Bar.Start()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	tilelist := make(chan storedTile, task.bufSize)
	scanErr := make(chan error, 1)
	go func() {
		scanErr <- task.scan(ctx, tilelist)
	}()

	aborted := false
	for tile := range tilelist {
		if aborted {
			continue
		}
		select {
		case task.workers <- struct{}{}:
			task.Bar.Increment()
			task.tileWG.Add(1)
			go task.tileChecker(tile)
		case <-task.abort:
			log.Infof("Task %s got canceled.", task.ID)
			aborted = true
			cancel()
		}
	}
	task.tileWG.Wait()
	err := <-scanErr
	task.Bar.FinishPrint(fmt.Sprintf("Task %s store %s finished ~", task.ID, store.Alias))
	if err != nil && !aborted {
		return nil, err
	}
	return task.report()
}

// scan streams the tiles table into list and closes it.
func (task *Task) scan(ctx context.Context, list chan<- storedTile) error {
	defer close(list)

	rows, err := task.Store.db.QueryContext(ctx, "SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles")
	if err != nil {
		return storeReadError(err, "store %s scan tiles", task.Store.Alias)
	}
	defer rows.Close()

	for rows.Next() {
		var z, x, row int64
		var data []byte
		if err := rows.Scan(&z, &x, &row, &data); err != nil {
			return storeReadError(err, "store %s scan tile", task.Store.Alias)
		}
		t, ok := clientTile(z, x, row)
		if !ok {
			atomic.AddInt64(&task.outside, 1)
			log.Debugf("tile(z:%d, x:%d, row:%d) is off the grid ~", z, x, row)
			continue
		}
		select {
		case list <- storedTile{T: t, C: data}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := rows.Err(); err != nil {
		return storeReadError(err, "store %s scan tiles", task.Store.Alias)
	}
	return nil
}

// clientTile maps a stored row back to the top-left origin. The flip is its
// own inverse.
func clientTile(z, x, row int64) (maptile.Tile, bool) {
	if z < ZoomMin || z > ZoomMax || x < 0 || row < 0 {
		return maptile.Tile{}, false
	}
	n := int64(1) << uint(z)
	if x >= n || row >= n {
		return maptile.Tile{}, false
	}
	y, _ := toStoredRow(maptile.Zoom(z), uint32(row))
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), true
}

// tileChecker 瓦片校验器
func (task *Task) tileChecker(tile storedTile) {
	defer func() {
		task.tileWG.Done()
		<-task.workers
	}()

	if !task.Store.Meta.Covers(tile.T) {
		atomic.AddInt64(&task.outside, 1)
		log.Debugf("tile(z:%d, x:%d, y:%d) outside zoom %d-%d ~", tile.T.Z, tile.T.X, tile.T.Y, task.Store.Meta.Min, task.Store.Meta.Max)
	} else if err := checkFraming(task.Store.Kind, tile.C); err != nil {
		atomic.AddInt64(&task.invalid, 1)
		log.Debugf("tile(z:%d, x:%d, y:%d) %s ~", tile.T.Z, tile.T.X, tile.T.Y, err)
	}

	task.mu.Lock()
	task.stored[tile.T.Z]++
	task.mu.Unlock()
}

// report compares the stored count per zoom with the number of tiles the
// coverage area needs at that zoom. Without a coverage file the metadata
// bounds are the area.
func (task *Task) report() (*Report, error) {
	coverage, err := task.Store.CoverageCollection()
	if err != nil {
		return nil, err
	}
	r := &Report{
		TaskID:  task.ID,
		Alias:   task.Store.Alias,
		Kind:    task.Store.Kind,
		Total:   task.Total,
		Invalid: atomic.LoadInt64(&task.invalid),
		Outside: atomic.LoadInt64(&task.outside),
	}
	for z, n := range task.stored {
		expected := boundCount(task.Store.Meta.Bounds, z)
		if coverage != nil {
			expected = tilecover.CollectionCount(coverage, z)
		}
		r.Zooms = append(r.Zooms, ZoomCoverage{Zoom: int(z), Stored: n, Expected: expected})
	}
	sort.Slice(r.Zooms, func(i, j int) bool { return r.Zooms[i].Zoom < r.Zooms[j].Zoom })
	return r, nil
}
