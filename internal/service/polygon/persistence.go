package polygon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"polyring/internal/metrics"
	"polyring/internal/model"
	"polyring/internal/overlay"
	"polyring/internal/polyline"
)

// FlushToCache writes polygons changed since the last flush to the cache and
// retries cache deletes that failed earlier
func (s *PolygonService) FlushToCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	start := time.Now()
	defer func() { metrics.FlushDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds()) }()

	// Mutations wait until the dirty set is written and cleared
	s.mu.Lock()
	defer s.mu.Unlock()

	dirty := s.storage.GetDirty()
	if len(dirty) > 0 {
		keys := make([]string, 0, len(dirty))
		records := make([]*model.PolygonRecord, 0, len(dirty))
		for id, e := range dirty {
			records = append(records, toRecord(e, s.storePrecision))
			keys = append(keys, id)
		}

		if err := s.cache.SaveMany(ctx, records); err != nil {
			return fmt.Errorf("flush to cache: %w", err)
		}

		// Clear flags only after successful save
		s.storage.ClearDirty(keys)
		s.log.V(1).Info("saved polygons to cache", "count", len(records))
	}

	var errs []error
	for _, id := range s.pendingLocked(false) {
		if err := s.cache.Delete(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		s.settleLocked(id, tombstone{cache: true})
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("flush deletes to cache: %w", err)
	}
	return nil
}

// FlushToStore writes every polygon to the repository. Deletes that ran while
// the records were being saved, or failed earlier, are applied afterwards so a
// deleted polygon never outlives the flush in the store.
func (s *PolygonService) FlushToStore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	s.storeFlushMu.Lock()
	defer s.storeFlushMu.Unlock()

	start := time.Now()
	defer func() { metrics.FlushDuration.WithLabelValues("store").Observe(time.Since(start).Seconds()) }()

	s.mu.Lock()
	s.storeFlushing = true
	records := s.collectRecords()
	s.mu.Unlock()

	var saveErr error
	if len(records) > 0 {
		saveErr = s.repo.SaveAll(ctx, records)
	}

	s.mu.Lock()
	s.storeFlushing = false
	pending := s.pendingLocked(true)
	s.mu.Unlock()

	deleteErr := s.applyStoreDeletes(ctx, pending)

	if saveErr != nil {
		return fmt.Errorf("flush to store: %w", saveErr)
	}
	if deleteErr != nil {
		return fmt.Errorf("flush deletes to store: %w", deleteErr)
	}

	s.log.V(1).Info("saved polygons to store", "count", len(records), "deleted", len(pending))
	return nil
}

// parallelStorage is implemented by storages that can visit shards concurrently
type parallelStorage interface {
	ForEachParallel(fn func(key string, value *entry))
}

// collectRecords converts every polygon to a record. Callers hold s.mu.
func (s *PolygonService) collectRecords() []*model.PolygonRecord {
	ps, ok := s.storage.(parallelStorage)
	if !ok {
		entries := s.storage.GetAllValues()
		records := make([]*model.PolygonRecord, len(entries))
		for i, e := range entries {
			records[i] = toRecord(e, s.storePrecision)
		}
		return records
	}

	var mu sync.Mutex
	records := make([]*model.PolygonRecord, 0, s.storage.Count())
	ps.ForEachParallel(func(_ string, e *entry) {
		rec := toRecord(e, s.storePrecision)
		mu.Lock()
		records = append(records, rec)
		mu.Unlock()
	})
	return records
}

func toRecord(e *entry, precision int) *model.PolygonRecord {
	opts := e.polygon.Options()
	var holes []string
	for _, h := range e.polygon.Holes() {
		holes = append(holes, polyline.Encode(h, precision))
	}

	return &model.PolygonRecord{
		ID:            e.id,
		Name:          e.name,
		Ring:          polyline.Encode(e.polygon.Vertices(), precision),
		Holes:         holes,
		Precision:     precision,
		StrokeColor:   opts.StrokeColor,
		StrokeWeight:  opts.StrokeWeight,
		StrokeOpacity: opts.StrokeOpacity,
		FillColor:     opts.FillColor,
		FillOpacity:   opts.FillOpacity,
		Fill:          opts.Fill,
		Outline:       opts.Outline,
		Clickable:     opts.Clickable,
		VertexCount:   e.polygon.VertexCount(),
		Area:          e.polygon.Area(),
		CreatedAt:     e.createdAt,
		UpdatedAt:     e.updatedAt,
	}
}

func fromRecord(rec *model.PolygonRecord) (*entry, error) {
	ring, err := polyline.Decode(rec.Ring, rec.Precision)
	if err != nil {
		return nil, fmt.Errorf("ring: %w", err)
	}

	holes := make([][]model.LatLng, 0, len(rec.Holes))
	for i, enc := range rec.Holes {
		h, err := polyline.Decode(enc, rec.Precision)
		if err != nil {
			return nil, fmt.Errorf("hole %d: %w", i, err)
		}
		holes = append(holes, h)
	}

	opts := overlay.Options{
		StrokeColor:   rec.StrokeColor,
		StrokeWeight:  rec.StrokeWeight,
		StrokeOpacity: rec.StrokeOpacity,
		FillColor:     rec.FillColor,
		FillOpacity:   rec.FillOpacity,
		Fill:          rec.Fill,
		Outline:       rec.Outline,
		Clickable:     rec.Clickable,
	}

	return &entry{
		id:        rec.ID,
		name:      rec.Name,
		polygon:   overlay.WithHoles(ring, holes, opts),
		createdAt: rec.CreatedAt,
		updatedAt: rec.UpdatedAt,
	}, nil
}
