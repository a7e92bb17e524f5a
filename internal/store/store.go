package store

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/protocol"
)

const (
	shardCount = 32

	// HistoryRetention bounds the externally queryable per-vessel history
	HistoryRetention = 7 * 24 * time.Hour

	// DefaultHistoryHours is the default range for history queries
	DefaultHistoryHours = 24
)

type vesselEntry struct {
	latest  protocol.EtaPrediction
	history []protocol.EtaPrediction
}

type shard struct {
	mu      sync.RWMutex
	vessels map[string]*vesselEntry
}

// Store caches the latest prediction and a retention-bounded history per
// vessel. Vessels are partitioned across shards so a write to one vessel never
// blocks reads or writes for vessels on other shards; within a shard, a write
// is atomic with respect to readers of the same entry.
type Store struct {
	shards [shardCount]*shard
	now    func() time.Time
}

// New creates an empty prediction store
func New() *Store {
	s := &Store{now: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{vessels: make(map[string]*vesselEntry)}
	}
	return s
}

func (s *Store) shardFor(mmsi string) *shard {
	h := fnv.New32a()
	h.Write([]byte(mmsi))
	return s.shards[h.Sum32()%shardCount]
}

// Upsert replaces the vessel's latest prediction and appends it to the
// history, pruning entries older than the retention window. Re-upserting an
// equivalent prediction after a broker re-delivery is safe: the latest slot is
// overwritten and the history at worst gains a near-duplicate entry.
func (s *Store) Upsert(prediction protocol.EtaPrediction) {
	sh := s.shardFor(prediction.Mmsi)
	cutoff := s.now().Add(-HistoryRetention)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.vessels[prediction.Mmsi]
	if !ok {
		entry = &vesselEntry{}
		sh.vessels[prediction.Mmsi] = entry
	}

	entry.latest = prediction

	history := append(entry.history, prediction)
	kept := history[:0]
	for _, p := range history {
		if p.PredictionTimestampUtc.After(cutoff) {
			kept = append(kept, p)
		}
	}
	entry.history = kept
}

// Latest returns the most recent prediction for a vessel. The second return
// value is false when the vessel is unknown.
func (s *Store) Latest(mmsi string) (protocol.EtaPrediction, bool) {
	sh := s.shardFor(mmsi)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	entry, ok := sh.vessels[mmsi]
	if !ok {
		return protocol.EtaPrediction{}, false
	}
	return entry.latest, true
}

// History returns the vessel's predictions newer than now minus hoursBack,
// ordered ascending by prediction timestamp. Unknown vessels yield an empty
// slice, not an error.
func (s *Store) History(mmsi string, hoursBack int) []protocol.EtaPrediction {
	sh := s.shardFor(mmsi)
	cutoff := s.now().Add(-time.Duration(hoursBack) * time.Hour)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	entry, ok := sh.vessels[mmsi]
	if !ok {
		return nil
	}

	// History is appended in arrival order, which tracks prediction timestamps
	var result []protocol.EtaPrediction
	for _, p := range entry.history {
		if p.PredictionTimestampUtc.After(cutoff) {
			result = append(result, p)
		}
	}
	return result
}

// AllLatest returns every vessel's latest prediction
func (s *Store) AllLatest() []protocol.EtaPrediction {
	var result []protocol.EtaPrediction

	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, entry := range sh.vessels {
			result = append(result, entry.latest)
		}
		sh.mu.RUnlock()
	}

	return result
}

// VesselCount returns the number of vessels with at least one prediction
func (s *Store) VesselCount() int {
	count := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		count += len(sh.vessels)
		sh.mu.RUnlock()
	}
	return count
}
