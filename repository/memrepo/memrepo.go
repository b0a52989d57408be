// Package memrepo is an in-memory repository.Store used by tests and by the
// node when it runs with the memory database driver.
package memrepo

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"k8s.io/utils/clock"
)

// RoutineFunc stands in for a stored routine
type RoutineFunc func(ctx context.Context, input repository.RoutineIO) (repository.RoutineIO, error)

type tables struct {
	confirmations  map[string]models.Confirmation
	batches        map[string]models.Batch
	receivers      map[string]models.BatchReceiver
	products       map[string]models.Product
	purchaseOrders map[uint]models.PurchaseOrder
	pallets        map[string]models.Pallet
	details        map[uint]models.PalletDetail
	lots           map[string]models.InventoryLot
	transactions   map[string]models.InventoryTransaction
	holds          map[string]models.Hold
	profiles       map[string]models.RequirementProfile
	facilities     map[string]models.FacilityConfig
	operators      map[string]models.Operator
	crossDock      map[string]models.CrossDockOrder
	locations      map[string]models.Location
	audits         []models.AuditRecord
	exceptions     []models.InventoryException
	nextID         uint
}

func newTables() *tables {
	return &tables{
		confirmations:  map[string]models.Confirmation{},
		batches:        map[string]models.Batch{},
		receivers:      map[string]models.BatchReceiver{},
		products:       map[string]models.Product{},
		purchaseOrders: map[uint]models.PurchaseOrder{},
		pallets:        map[string]models.Pallet{},
		details:        map[uint]models.PalletDetail{},
		lots:           map[string]models.InventoryLot{},
		transactions:   map[string]models.InventoryTransaction{},
		holds:          map[string]models.Hold{},
		profiles:       map[string]models.RequirementProfile{},
		facilities:     map[string]models.FacilityConfig{},
		operators:      map[string]models.Operator{},
		crossDock:      map[string]models.CrossDockOrder{},
		locations:      map[string]models.Location{},
	}
}

func (t *tables) clone() *tables {
	return &tables{
		confirmations:  maps.Clone(t.confirmations),
		batches:        maps.Clone(t.batches),
		receivers:      maps.Clone(t.receivers),
		products:       maps.Clone(t.products),
		purchaseOrders: maps.Clone(t.purchaseOrders),
		pallets:        maps.Clone(t.pallets),
		details:        maps.Clone(t.details),
		lots:           maps.Clone(t.lots),
		transactions:   maps.Clone(t.transactions),
		holds:          maps.Clone(t.holds),
		profiles:       maps.Clone(t.profiles),
		facilities:     maps.Clone(t.facilities),
		operators:      maps.Clone(t.operators),
		crossDock:      maps.Clone(t.crossDock),
		locations:      maps.Clone(t.locations),
		audits:         slices.Clone(t.audits),
		exceptions:     slices.Clone(t.exceptions),
		nextID:         t.nextID,
	}
}

type memdb struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	t        *tables
	routines map[string]RoutineFunc
	calls    map[string][]repository.RoutineIO
	clock    clock.PassiveClock
}

// Store is the in-memory repository.Store
type Store struct {
	db   *memdb
	inTx bool
}

var _ repository.Store = (*Store)(nil)

// New creates an empty store with the default routines registered
func New(clk clock.PassiveClock) *Store {
	if clk == nil {
		clk = clock.RealClock{}
	}
	db := &memdb{
		t:        newTables(),
		routines: map[string]RoutineFunc{},
		calls:    map[string][]repository.RoutineIO{},
		clock:    clk,
	}
	s := &Store{db: db}
	s.registerDefaultRoutines()
	return s
}

// NewSeeded creates a store loaded with the demo fixtures
func NewSeeded(clk clock.PassiveClock) *Store {
	s := New(clk)
	s.Load(repository.DemoFixtures())
	return s
}

// Load inserts a fixture set
func (s *Store) Load(fx repository.Fixtures) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t := s.db.t
	for _, f := range fx.Facilities {
		t.facilities[f.Facility] = f
	}
	for _, p := range fx.Profiles {
		t.profiles[p.CustomerCode] = p
	}
	for _, o := range fx.Operators {
		t.operators[o.ID] = o
	}
	for _, p := range fx.Products {
		t.products[p.Code] = p
	}
	for _, c := range fx.Confirmations {
		t.confirmations[c.Number] = c
	}
	for _, b := range fx.Batches {
		if b.ScanStatus == "" {
			b.ScanStatus = models.ScanStatusOpen
		}
		t.batches[b.ID] = b
	}
	for _, po := range fx.PurchaseOrders {
		t.nextID++
		po.ID = t.nextID
		t.purchaseOrders[po.ID] = po
	}
	for _, o := range fx.CrossDockOrders {
		t.crossDock[o.ID] = o
	}
	for _, l := range fx.Locations {
		t.locations[l.Code] = l
	}
}

// SetRoutine replaces the implementation of a named routine
func (s *Store) SetRoutine(name string, fn RoutineFunc) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.routines[name] = fn
}

// RoutineCalls returns the inputs a routine has been called with
func (s *Store) RoutineCalls(name string) []repository.RoutineIO {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return slices.Clone(s.db.calls[name])
}

// WithTx snapshots every table and restores it when fn fails
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	s.db.mu.Lock()
	snapshot := s.db.t.clone()
	s.db.mu.Unlock()

	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.mu.Lock()
		s.db.t = snapshot
		s.db.mu.Unlock()
		return err
	}
	return nil
}

// RunRoutine dispatches to the registered routine, recording the call
func (s *Store) RunRoutine(ctx context.Context, name string, input repository.RoutineIO) (repository.RoutineIO, error) {
	if !repository.KnownRoutines[name] {
		return nil, &repository.RepositoryError{
			Code:    repository.CodeUnknownRoutine,
			Message: "Unknown routine",
			Detail:  fmt.Sprintf("Routine %q is not registered", name),
		}
	}
	s.db.mu.Lock()
	fn := s.db.routines[name]
	s.db.calls[name] = append(s.db.calls[name], maps.Clone(input))
	s.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &repository.RepositoryError{Code: repository.CodeRoutineTimeout, Message: "Routine timed out", Detail: name}
	}
	if fn == nil {
		return repository.RoutineIO{}, nil
	}
	out, err := fn(ctx, input)
	if err != nil {
		return nil, &repository.RepositoryError{
			Code:    repository.CodeRoutineFailed,
			Message: "Routine failed",
			Detail:  fmt.Sprintf("%s: %v", name, err),
		}
	}
	if out == nil {
		out = repository.RoutineIO{}
	}
	return out, nil
}

func (s *Store) now() time.Time {
	return s.db.clock.Now()
}

// locked runs fn holding the table lock; fn may read or write the tables
func (s *Store) locked(fn func(t *tables)) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	fn(s.db.t)
}

func sortedValues[K comparable, V any](m map[K]V, keep func(V) bool, less func(a, b V) bool) []V {
	out := make([]V, 0)
	for _, v := range m {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
