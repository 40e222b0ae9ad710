package polygon

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dhconnelly/rtreego"
	"github.com/go-logr/logr"

	"polyring/internal/metrics"
	"polyring/internal/model"
	"polyring/internal/overlay"
	"polyring/internal/polyline"
	"polyring/internal/service/storage"
	"polyring/internal/util"
)

// DefaultStorePrecision is the polyline precision used for persisted rings
const DefaultStorePrecision = 6

var ErrNotFound = errors.New("polygon not found")

// Repository is the durable polygon store
type Repository interface {
	LoadAll(ctx context.Context) ([]*model.PolygonRecord, error)
	SaveAll(ctx context.Context, records []*model.PolygonRecord) error
	Delete(ctx context.Context, id string) error
}

// Cache is the hot copy of recently changed polygons
type Cache interface {
	LoadAll(ctx context.Context) (map[string]*model.PolygonRecord, error)
	SaveMany(ctx context.Context, records []*model.PolygonRecord) error
	Delete(ctx context.Context, id string) error
}

// entry is one immutable version of a stored polygon. Mutations replace the
// entry instead of editing it, so readers never observe a half-applied change.
type entry struct {
	id        string
	name      string
	polygon   *overlay.Polygon
	createdAt time.Time
	updatedAt time.Time
}

// Snapshot is a read-only view of a stored polygon
type Snapshot struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Vertices    []model.LatLng   `json:"vertices"`
	Holes       [][]model.LatLng `json:"holes,omitempty"`
	VertexCount int              `json:"vertex_count"`
	Area        float64          `json:"area"`
	Perimeter   float64          `json:"perimeter"`
	Options     overlay.Options  `json:"options"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (e *entry) snapshot() Snapshot {
	vertices := e.polygon.Vertices()
	if vertices == nil {
		vertices = []model.LatLng{}
	}
	return Snapshot{
		ID:          e.id,
		Name:        e.name,
		Vertices:    vertices,
		Holes:       e.polygon.Holes(),
		VertexCount: e.polygon.VertexCount(),
		Area:        e.polygon.Area(),
		Perimeter:   e.polygon.Perimeter(),
		Options:     e.polygon.Options(),
		CreatedAt:   e.createdAt,
		UpdatedAt:   e.updatedAt,
	}
}

// PolygonService owns polygons in memory, indexes them spatially and
// persists them through the cache and repository.
type PolygonService struct {
	storage storage.Storage[string, *entry]
	repo    Repository
	cache   Cache
	log     logr.Logger

	storePrecision int
	now            func() time.Time
	newID          func() string

	mu sync.Mutex // serializes mutations

	// tombstones hold deletes not yet applied to the cache or store
	tombstones    map[string]tombstone
	storeFlushing bool
	storeFlushMu  sync.Mutex // one store flush at a time

	spatialIndex *rtreego.Rtree
	indexed      map[string]*polygonSpatial
	indexMutex   sync.RWMutex

	initialized bool
	initMutex   sync.Mutex
}

// Option configures a PolygonService
type Option func(*PolygonService)

func WithLogger(l logr.Logger) Option {
	return func(s *PolygonService) { s.log = l }
}

// WithStorePrecision sets the precision of persisted rings
func WithStorePrecision(p int) Option {
	return func(s *PolygonService) { s.storePrecision = p }
}

// WithShards keeps polygons in a sharded storage instead of a single map
func WithShards(n int) Option {
	return func(s *PolygonService) {
		if n > 1 {
			s.storage = storage.NewStringShardedStorage[*entry](n)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *PolygonService) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *PolygonService) { s.newID = gen }
}

// NewService creates a polygon service. repo and cache may be nil, in which
// case the matching persistence step is skipped.
func NewService(repo Repository, cache Cache, opts ...Option) *PolygonService {
	s := &PolygonService{
		storage:        storage.NewMemoryStorage[string, *entry](),
		repo:           repo,
		cache:          cache,
		log:            logr.Discard(),
		storePrecision: DefaultStorePrecision,
		now:            time.Now,
		newID:          util.ShortUUID,
		spatialIndex:   newSpatialTree(),
		indexed:        make(map[string]*polygonSpatial),
		tombstones:     make(map[string]tombstone),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads polygons from the repository, then overrides them with newer cache entries
func (s *PolygonService) Init(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}

	s.log.Info("initializing polygon service")
	startTime := time.Now()

	var stored []*model.PolygonRecord
	if s.repo != nil {
		var err error
		stored, err = s.repo.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load polygons from store: %w", err)
		}
	}
	s.log.Info("loaded polygons from store", "count", len(stored), "took", time.Since(startTime))

	cached := map[string]*model.PolygonRecord{}
	if s.cache != nil {
		var err error
		cached, err = s.cache.LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load polygons from cache: %w", err)
		}
	}
	s.log.Info("loaded polygon updates from cache", "count", len(cached))

	merged := s.mergeRecords(stored, cached)
	s.log.Info("merged newer polygons from cache", "count", merged)

	s.rebuildSpatialIndex()
	metrics.PolygonsStored.Set(float64(s.storage.Count()))

	s.log.Info("polygon service initialized", "polygons", s.storage.Count(), "took", time.Since(startTime))
	s.initialized = true
	return nil
}

// mergeRecords loads stored records, then lets newer cached ones win.
// Loaded entries are not dirty.
func (s *PolygonService) mergeRecords(stored []*model.PolygonRecord, cached map[string]*model.PolygonRecord) int {
	keys := make([]string, 0, len(stored)+len(cached))
	for _, rec := range stored {
		e, err := fromRecord(rec)
		if err != nil {
			s.log.Error(err, "skipping stored polygon", "id", rec.ID)
			continue
		}
		s.storage.Set(e.id, e)
		keys = append(keys, e.id)
	}

	merged := 0
	for id, rec := range cached {
		existing, exists := s.storage.Get(id)
		if exists && !rec.UpdatedAt.After(existing.updatedAt) {
			continue
		}
		e, err := fromRecord(rec)
		if err != nil {
			s.log.Error(err, "skipping cached polygon", "id", id)
			continue
		}
		s.storage.Set(id, e)
		keys = append(keys, id)
		merged++
	}

	s.storage.ClearDirty(keys)
	return merged
}

// Create stores a new polygon built from points
func (s *PolygonService) Create(name string, points []model.LatLng, opts overlay.Options) (Snapshot, error) {
	if err := overlay.ValidatePoints(points); err != nil {
		return Snapshot{}, err
	}
	return s.insert(name, overlay.New(points, opts)), nil
}

// CreateFromEncoded decodes the polylines into a new polygon
func (s *PolygonService) CreateFromEncoded(name string, polylines []polyline.EncodedPolyline, opts overlay.Options) (Snapshot, error) {
	p, err := overlay.FromEncoded(polylines, opts)
	if err != nil {
		metrics.DecodeFailures.Inc()
		return Snapshot{}, err
	}
	// rings are re-encoded at the store precision when persisted
	for _, ring := range append([][]model.LatLng{p.Vertices()}, p.Holes()...) {
		if err := polyline.CheckEncodable(ring, s.storePrecision); err != nil {
			return Snapshot{}, err
		}
	}
	metrics.PolylinesDecoded.Add(float64(len(polylines)))
	return s.insert(name, p), nil
}

func (s *PolygonService) insert(name string, p *overlay.Polygon) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := &entry{
		id:        s.newID(),
		name:      name,
		polygon:   p,
		createdAt: now,
		updatedAt: now,
	}
	s.put(e)
	metrics.PolygonsStored.Set(float64(s.storage.Count()))

	s.log.V(1).Info("created polygon", "id", e.id, "vertices", p.VertexCount())
	return e.snapshot()
}

// Get returns the polygon with id
func (s *PolygonService) Get(id string) (Snapshot, error) {
	e, ok := s.storage.Get(id)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.snapshot(), nil
}

// List returns every polygon ordered by id
func (s *PolygonService) List() []Snapshot {
	entries := s.storage.GetAllValues()
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	out := make([]Snapshot, len(entries))
	for i, e := range entries {
		out[i] = e.snapshot()
	}
	return out
}

// InsertVertex inserts point before index in the polygon's ring
func (s *PolygonService) InsertVertex(id string, index int, point model.LatLng) (Snapshot, error) {
	snap, err := s.mutate(id, func(p *overlay.Polygon) error {
		return p.InsertVertex(index, point)
	})
	if err == nil {
		metrics.VertexMutations.WithLabelValues("insert").Inc()
	}
	return snap, err
}

// DeleteVertex removes the vertex at index from the polygon's ring
func (s *PolygonService) DeleteVertex(id string, index int) (Snapshot, error) {
	snap, err := s.mutate(id, func(p *overlay.Polygon) error {
		return p.DeleteVertex(index)
	})
	if err == nil {
		metrics.VertexMutations.WithLabelValues("delete").Inc()
	}
	return snap, err
}

// UpdateOptions replaces the presentation options
func (s *PolygonService) UpdateOptions(id string, opts overlay.Options) (Snapshot, error) {
	return s.mutate(id, func(p *overlay.Polygon) error {
		p.SetOptions(opts)
		return nil
	})
}

// mutate applies fn to a copy of the polygon and stores the copy on success
func (s *PolygonService) mutate(id string, fn func(p *overlay.Polygon) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.storage.Get(id)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	p := current.polygon.Clone()
	if err := fn(p); err != nil {
		return Snapshot{}, err
	}

	next := &entry{
		id:        current.id,
		name:      current.name,
		polygon:   p,
		createdAt: current.createdAt,
		updatedAt: s.now(),
	}
	s.put(next)
	return next.snapshot(), nil
}

// Delete removes the polygon from memory, cache and store. Both backends are
// attempted; a failed backend delete stays pending and is retried by the next
// flush to that backend.
func (s *PolygonService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if !s.storage.Delete(id) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.unindex(id)
	s.tombstones[id] = tombstone{cache: s.cache != nil, store: s.repo != nil}
	// a running store flush may still write this polygon, it deletes after saving
	storeDeferred := s.storeFlushing
	metrics.PolygonsStored.Set(float64(s.storage.Count()))
	s.mu.Unlock()

	var errs []error
	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		} else {
			s.settle(id, tombstone{cache: true})
		}
	}
	if s.repo != nil && !storeDeferred {
		if err := s.repo.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		} else {
			s.settle(id, tombstone{store: true})
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Error(err, "polygon delete left pending", "id", id)
		return err
	}
	return nil
}

// PolygonsAt returns every polygon containing the point, ordered by id
func (s *PolygonService) PolygonsAt(lat, lng float64) []Snapshot {
	point := model.LatLng{Lat: lat, Lng: lng}

	var out []Snapshot
	for _, id := range s.candidatesAt(point) {
		e, ok := s.storage.Get(id)
		if !ok {
			continue
		}
		if e.polygon.Contains(point) {
			out = append(out, e.snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// put stores e and refreshes its index entry. Callers hold s.mu.
func (s *PolygonService) put(e *entry) {
	s.storage.Set(e.id, e)
	s.reindex(e)
}
