// Package summary periodically renders a ranked digest of tracked hits.
package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tinytelemetry/klaxon/internal/model"
	"github.com/tinytelemetry/klaxon/internal/track"
)

// Emitter receives rendered summary text. Satisfied by notify.Dispatcher.
type Emitter interface {
	Summary(text string)
}

// Aggregator reads the tracker on a fixed period and emits one block per
// source that has hits. It never mutates tracker state.
type Aggregator struct {
	tracker   *track.Tracker
	emitter   Emitter
	interval  time.Duration
	topN      int
	sampleLen int
}

func New(tracker *track.Tracker, emitter Emitter, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = model.DefaultSummaryInterval
	}
	return &Aggregator{
		tracker:   tracker,
		emitter:   emitter,
		interval:  interval,
		topN:      model.SummaryTopHits,
		sampleLen: model.SummarySampleLength,
	}
}

// Run ticks until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.Tick(now)
		}
	}
}

// Tick renders and emits the digest for one period. A tick with no hits
// anywhere emits nothing. Returns whether a summary was emitted.
func (a *Aggregator) Tick(now time.Time) bool {
	var blocks []string
	for _, source := range a.tracker.Sources() {
		snap := a.tracker.Snapshot(source)
		if len(snap) == 0 {
			continue
		}
		blocks = append(blocks, a.renderBlock(source, Rank(snap, a.topN)))
	}
	if len(blocks) == 0 {
		return false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[SUMMARY] %s\n", now.UTC().Format(time.RFC3339))
	b.WriteString(strings.Join(blocks, "\n"))
	a.emitter.Summary(b.String())
	return true
}

// Rank orders hits by count descending, breaking ties by earliest FirstSeen
// (the longer-standing issue wins), and keeps the top n.
func Rank(hits []track.FingerprintHit, n int) []track.FingerprintHit {
	ranked := make([]track.FingerprintHit, len(hits))
	copy(ranked, hits)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Hit.Count != ranked[j].Hit.Count {
			return ranked[i].Hit.Count > ranked[j].Hit.Count
		}
		return ranked[i].Hit.FirstSeen.Before(ranked[j].Hit.FirstSeen)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (a *Aggregator) renderBlock(source string, hits []track.FingerprintHit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", source)
	for _, fh := range hits {
		fmt.Fprintf(&b, "  %dx since %s  %s\n",
			fh.Hit.Count,
			fh.Hit.FirstSeen.UTC().Format(time.RFC3339),
			model.Truncate(fh.Hit.Sample, a.sampleLen))
	}
	return b.String()
}
