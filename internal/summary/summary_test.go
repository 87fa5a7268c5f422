package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/klaxon/internal/track"
)

type captureEmitter struct {
	texts []string
}

func (c *captureEmitter) Summary(text string) { c.texts = append(c.texts, text) }

func TestRank_TopFiveByCountThenFirstSeen(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	counts := []int64{5, 1, 9, 2, 7, 3}

	hits := make([]track.FingerprintHit, 0, len(counts))
	for i, c := range counts {
		hits = append(hits, track.FingerprintHit{
			Fingerprint: string(rune('a' + i)),
			Hit:         track.Hit{Count: c, FirstSeen: base.Add(time.Duration(i) * time.Minute)},
		})
	}

	ranked := Rank(hits, 5)
	want := []int64{9, 7, 5, 3, 2}
	if len(ranked) != len(want) {
		t.Fatalf("ranked length = %d, want %d", len(ranked), len(want))
	}
	for i, w := range want {
		if ranked[i].Hit.Count != w {
			t.Errorf("ranked[%d].Count = %d, want %d", i, ranked[i].Hit.Count, w)
		}
	}
}

func TestRank_TiesFavorLongerStandingHit(t *testing.T) {
	t.Parallel()

	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	hits := []track.FingerprintHit{
		{Fingerprint: "newer", Hit: track.Hit{Count: 4, FirstSeen: late}},
		{Fingerprint: "older", Hit: track.Hit{Count: 4, FirstSeen: early}},
	}

	ranked := Rank(hits, 5)
	if ranked[0].Fingerprint != "older" {
		t.Errorf("ranked[0] = %q, want the longer-standing hit first", ranked[0].Fingerprint)
	}
}

func TestTick_EmitsBlocksOnlyForSourcesWithHits(t *testing.T) {
	t.Parallel()

	tr := track.New()
	now := time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)
	tr.MarkHit("web", "fp1", "Error: boom", now.Add(-time.Minute))
	tr.MarkHit("web", "fp1", "Error: boom", now.Add(-30*time.Second))

	em := &captureEmitter{}
	agg := New(tr, em, time.Minute)

	if !agg.Tick(now) {
		t.Fatal("expected a summary to be emitted")
	}
	if len(em.texts) != 1 {
		t.Fatalf("emitted %d summaries, want 1", len(em.texts))
	}

	text := em.texts[0]
	if !strings.Contains(text, "web:") {
		t.Errorf("summary missing source block:\n%s", text)
	}
	if !strings.Contains(text, "2x since ") {
		t.Errorf("summary missing count:\n%s", text)
	}
	if !strings.Contains(text, "Error: boom") {
		t.Errorf("summary missing sample:\n%s", text)
	}
	if strings.Contains(text, "db:") {
		t.Errorf("summary contains a block for a hitless source:\n%s", text)
	}
}

func TestTick_NoHitsNoSummary(t *testing.T) {
	t.Parallel()

	em := &captureEmitter{}
	agg := New(track.New(), em, time.Minute)

	if agg.Tick(time.Now()) {
		t.Error("idle tick must not emit")
	}
	if len(em.texts) != 0 {
		t.Errorf("emitted %d summaries on an idle tick, want 0", len(em.texts))
	}
}

func TestTick_TruncatesLongSamples(t *testing.T) {
	t.Parallel()

	tr := track.New()
	now := time.Now()
	long := "Error: " + strings.Repeat("x", 400)
	tr.MarkHit("web", "fp1", long, now)

	em := &captureEmitter{}
	agg := New(tr, em, time.Minute)
	agg.Tick(now)

	if len(em.texts) != 1 {
		t.Fatalf("emitted %d summaries, want 1", len(em.texts))
	}
	if strings.Contains(em.texts[0], long) {
		t.Error("summary contains the full untruncated sample")
	}
}
