package main

import (
	"time"

	"github.com/tinytelemetry/klaxon/internal/filter"
	"github.com/tinytelemetry/klaxon/internal/fingerprint"
	"github.com/tinytelemetry/klaxon/internal/gate"
	"github.com/tinytelemetry/klaxon/internal/metrics"
	"github.com/tinytelemetry/klaxon/internal/model"
	"github.com/tinytelemetry/klaxon/internal/notify"
	"github.com/tinytelemetry/klaxon/internal/track"
)

// Pipeline is the per-line alert path: classify, fingerprint, track, gate,
// dispatch. Safe for concurrent use; the tracker and gate serialize their
// own state.
type Pipeline struct {
	filter     *filter.Filter
	tracker    *track.Tracker
	gate       *gate.Gate
	dispatcher *notify.Dispatcher
	now        func() time.Time
}

func NewPipeline(f *filter.Filter, tracker *track.Tracker, g *gate.Gate, dispatcher *notify.Dispatcher) *Pipeline {
	return &Pipeline{
		filter:     f,
		tracker:    tracker,
		gate:       g,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Process runs one cleaned line through the alert path.
func (p *Pipeline) Process(ev model.LineEvent) {
	metrics.ObserveLine(ev.Source.Name, string(ev.Stream))

	if p.filter.Classify(ev.Line) != filter.ClassQualifying {
		return
	}

	now := p.now()
	fp := fingerprint.Fingerprint(ev.Line)

	p.tracker.MarkHit(ev.Source.Name, fp, ev.Line, now)
	metrics.ObserveQualifying(ev.Source.Name)

	if !p.gate.Allow(ev.Source.Name, fp, now) {
		metrics.ObserveSuppressed(ev.Source.Name)
		return
	}
	metrics.ObserveAlert(ev.Source.Name)
	p.dispatcher.AlertNow(ev.Source.Name, ev.Line)
}
