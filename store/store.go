package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/NotHilal/PLM-Hackaton/loader"
	"github.com/NotHilal/PLM-Hackaton/metrics"
	"github.com/NotHilal/PLM-Hackaton/table"
)

const defaultLoadPoolSize = 3

// Snapshot is one consistent ERP / MES / PLM triple. A nil table means the
// category has no data loaded. Snapshots are never mutated once published.
type Snapshot struct {
	ID       string
	LoadedAt time.Time
	ERP      *table.Table
	MES      *table.Table
	PLM      *table.Table
}

// Table returns the table of a category, or nil.
func (s *Snapshot) Table(c table.Category) *table.Table {
	switch c {
	case table.ERP:
		return s.ERP
	case table.MES:
		return s.MES
	case table.PLM:
		return s.PLM
	}
	return nil
}

// Loaded reports which categories hold a table.
func (s *Snapshot) Loaded() map[table.Category]bool {
	return map[table.Category]bool{
		table.ERP: s.ERP != nil,
		table.MES: s.MES != nil,
		table.PLM: s.PLM != nil,
	}
}

func (s *Snapshot) with(c table.Category, t *table.Table) *Snapshot {
	next := *s
	switch c {
	case table.ERP:
		next.ERP = t
	case table.MES:
		next.MES = t
	case table.PLM:
		next.PLM = t
	}
	return &next
}

// Loader loads the table of one category.
type Loader interface {
	Load(ctx context.Context, category table.Category) (*table.Table, error)
}

type Config struct {
	Logger  *slog.Logger
	Loader  Loader // optional; Reload needs it
	Clock   clockwork.Clock
	Metrics *metrics.Metrics

	LoadPoolSize int
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Noop()
	}
	if c.LoadPoolSize == 0 {
		c.LoadPoolSize = defaultLoadPoolSize
	}
	return nil
}

// Store holds the active snapshot. Readers call Current and keep the returned
// snapshot for the whole request; writers publish a new snapshot with one
// atomic swap. Writers are serialized among themselves.
type Store struct {
	log *slog.Logger
	cfg Config

	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex

	loadPool pond.ResultPool[CategoryResult]
}

func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Store{
		log:      cfg.Logger,
		cfg:      cfg,
		loadPool: pond.NewResultPool[CategoryResult](cfg.LoadPoolSize),
	}
	s.current.Store(s.newSnapshot(nil, nil, nil))
	return s, nil
}

// Current returns the active snapshot. It is never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace publishes a snapshot in which category c holds t. The other two
// tables are carried over unchanged.
func (s *Store) Replace(c table.Category, t *table.Table) *Snapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Current().with(c, t)
	next.ID = uuid.NewString()
	next.LoadedAt = s.cfg.Clock.Now()
	s.publish(next)
	s.log.Info("store: replaced table", "category", c, "rows", t.Len(), "snapshot", next.ID)
	return next
}

// Delete publishes a snapshot without category c.
func (s *Store) Delete(c table.Category) *Snapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Current().with(c, nil)
	next.ID = uuid.NewString()
	next.LoadedAt = s.cfg.Clock.Now()
	s.publish(next)
	s.log.Info("store: deleted table", "category", c, "snapshot", next.ID)
	return next
}

// Reload loads every category concurrently and publishes the result as one
// snapshot. A category that is missing or fails to load is absent from the
// new snapshot and listed in the report. The previous snapshot stays active
// only if ctx is cancelled.
func (s *Store) Reload(ctx context.Context) (*Snapshot, *LoadReport, error) {
	if s.cfg.Loader == nil {
		return nil, nil, errors.New("store has no loader")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	group := s.loadPool.NewGroupContext(ctx)
	for _, c := range table.Categories {
		group.SubmitErr(func() (CategoryResult, error) {
			return s.loadCategory(ctx, c), nil
		})
	}
	results, err := group.Wait()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload tables: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("reload cancelled: %w", err)
	}

	report := &LoadReport{Results: results}
	tables := make(map[table.Category]*table.Table, len(results))
	for _, r := range results {
		tables[r.Category] = r.table
	}

	next := s.newSnapshot(tables[table.ERP], tables[table.MES], tables[table.PLM])
	s.publish(next)
	s.log.Info("store: reloaded tables", "snapshot", next.ID, "loaded", report.LoadedCount(), "failures", len(report.Failures()))
	return next, report, nil
}

func (s *Store) loadCategory(ctx context.Context, c table.Category) CategoryResult {
	start := s.cfg.Clock.Now()
	t, err := s.cfg.Loader.Load(ctx, c)
	res := CategoryResult{Category: c, Duration: s.cfg.Clock.Since(start)}

	switch {
	case err == nil:
		res.Status = metrics.StatusLoaded
		res.Source = t.Name()
		res.Rows = t.Len()
		res.table = t
	case errors.Is(err, loader.ErrNotFound):
		res.Status = metrics.StatusNotFound
	case errors.Is(err, loader.ErrMalformed):
		res.Status = metrics.StatusMalformed
		res.Err = err
		s.log.Warn("store: malformed table, treating as absent", "category", c, "error", err)
	default:
		res.Status = metrics.StatusFailed
		res.Err = err
		s.log.Error("store: failed to load table, treating as absent", "category", c, "error", err)
	}

	s.cfg.Metrics.TableLoadsTotal.WithLabelValues(string(c), res.Status).Inc()
	return res
}

func (s *Store) newSnapshot(erp, mes, plm *table.Table) *Snapshot {
	return &Snapshot{
		ID:       uuid.NewString(),
		LoadedAt: s.cfg.Clock.Now(),
		ERP:      erp,
		MES:      mes,
		PLM:      plm,
	}
}

func (s *Store) publish(next *Snapshot) {
	s.current.Store(next)
	s.cfg.Metrics.SnapshotSwapsTotal.Inc()
}

// Close stops the load pool and waits for in-flight loads.
func (s *Store) Close() {
	s.loadPool.StopAndWait()
}
