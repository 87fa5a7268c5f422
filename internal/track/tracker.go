// Package track holds the in-process memory of what has been seen: one Hit
// per (source, fingerprint) pair. State is initialized empty at startup and
// discarded at shutdown; nothing is ever evicted within a run.
package track

import (
	"sort"
	"sync"
	"time"
)

// Hit is the aggregate state for one (source, fingerprint) pair.
type Hit struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Count     int64
	// Sample is one representative raw line, pinned at first observation.
	Sample string
}

// FingerprintHit pairs a fingerprint with a copy of its Hit for read-side use.
type FingerprintHit struct {
	Fingerprint string
	Hit         Hit
}

// Tracker owns the Hit mapping. All methods are safe for concurrent use;
// same-key increments are never lost.
type Tracker struct {
	mu   sync.Mutex
	hits map[string]map[string]*Hit // source name -> fingerprint -> hit
}

func New() *Tracker {
	return &Tracker{hits: make(map[string]map[string]*Hit)}
}

// MarkHit records one qualifying observation. The first observation of a
// key creates the Hit and pins its sample; later ones only bump Count and
// LastSeen.
func (t *Tracker) MarkHit(source, fingerprint, sample string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bySource := t.hits[source]
	if bySource == nil {
		bySource = make(map[string]*Hit)
		t.hits[source] = bySource
	}

	if hit, ok := bySource[fingerprint]; ok {
		hit.Count++
		hit.LastSeen = now
		return
	}

	bySource[fingerprint] = &Hit{
		FirstSeen: now,
		LastSeen:  now,
		Count:     1,
		Sample:    sample,
	}
}

// Snapshot returns copies of all hits for one source, ordered by fingerprint
// for determinism. Returns nil when the source has no hits.
func (t *Tracker) Snapshot(source string) []FingerprintHit {
	t.mu.Lock()
	defer t.mu.Unlock()

	bySource := t.hits[source]
	if len(bySource) == 0 {
		return nil
	}

	out := make([]FingerprintHit, 0, len(bySource))
	for fp, hit := range bySource {
		out = append(out, FingerprintHit{Fingerprint: fp, Hit: *hit})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out
}

// Sources returns the names of all tracked sources, sorted.
func (t *Tracker) Sources() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.hits))
	for source := range t.hits {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}
