package didcard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/sirupsen/logrus"
)

// Store is the in-memory snapshot of on-chain records
type Store struct {
	mu   sync.RWMutex
	snap model.Snapshot

	refreshing atomic.Int32

	registry Registry
	gate     *Gate
	board    *Board
	log      *logrus.Logger
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore(registry Registry, gate *Gate, board *Board, log *logrus.Logger, now func() time.Time) *Store {
	return &Store{
		snap:     model.Snapshot{Records: []model.Record{}},
		registry: registry,
		gate:     gate,
		board:    board,
		log:      log,
		now:      now,
	}
}

// Refresh re-fetches every record and recomputes stats.
// Only a failure to list identifiers fails the refresh; a record that cannot
// be loaded is logged and skipped.
func (s *Store) Refresh(ctx context.Context) (model.Snapshot, error) {
	if _, err := s.gate.RequireReady(); err != nil {
		return s.Snapshot(), err
	}
	gen := s.gate.generation()

	s.refreshing.Add(1)
	defer s.refreshing.Add(-1)

	ids, err := s.registry.ListIDs(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to load record ids")
		s.board.Error("Failed to load data")
		return s.Snapshot(), fmt.Errorf("failed to list record ids: %w", err)
	}

	records := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		record, err := s.registry.GetRecord(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("id", id).Warn("failed to load record, skipping")
			continue
		}
		records = append(records, *record)
	}

	snap := model.Snapshot{
		Records:     records,
		Stats:       ComputeStats(records),
		AgeBuckets:  ComputeAgeBuckets(records),
		RefreshedAt: s.now(),
	}

	// Drop results fetched for a connection that has since gone away
	if s.gate.generation() != gen {
		return s.Snapshot(), ErrNotConnected
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"total":    snap.Stats.Total,
		"verified": snap.Stats.Verified,
		"skipped":  len(ids) - len(records),
	}).Debug("records refreshed")
	return copySnapshot(snap), nil
}

// Snapshot returns a copy of the current snapshot
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.snap)
}

// Get returns the record with id from the current snapshot
func (s *Store) Get(id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.snap.Records {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Reset empties the snapshot
func (s *Store) Reset() {
	s.mu.Lock()
	s.snap = model.Snapshot{Records: []model.Record{}}
	s.mu.Unlock()
}

// Refreshing reports whether a refresh is running
func (s *Store) Refreshing() bool {
	return s.refreshing.Load() > 0
}

func copySnapshot(snap model.Snapshot) model.Snapshot {
	records := make([]model.Record, len(snap.Records))
	copy(records, snap.Records)
	snap.Records = records
	return snap
}
