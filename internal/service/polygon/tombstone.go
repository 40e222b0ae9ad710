package polygon

import (
	"context"
	"errors"
)

// tombstone marks which backends still hold a deleted polygon
type tombstone struct {
	cache bool
	store bool
}

func (t tombstone) done() bool {
	return !t.cache && !t.store
}

// settle clears the backends set in applied. Callers must not hold s.mu.
func (s *PolygonService) settle(id string, applied tombstone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleLocked(id, applied)
}

func (s *PolygonService) settleLocked(id string, applied tombstone) {
	t, ok := s.tombstones[id]
	if !ok {
		return
	}
	if applied.cache {
		t.cache = false
	}
	if applied.store {
		t.store = false
	}
	if t.done() {
		delete(s.tombstones, id)
		return
	}
	s.tombstones[id] = t
}

// pendingLocked returns ids whose delete is still due on the selected backend
func (s *PolygonService) pendingLocked(store bool) []string {
	var ids []string
	for id, t := range s.tombstones {
		if (store && t.store) || (!store && t.cache) {
			ids = append(ids, id)
		}
	}
	return ids
}

// applyStoreDeletes deletes ids from the repository and settles the successes
func (s *PolygonService) applyStoreDeletes(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := s.repo.Delete(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		s.settle(id, tombstone{store: true})
	}
	return errors.Join(errs...)
}
