package main

import (
	"context"
	"sync"

	"github.com/tinytelemetry/klaxon/internal/dockerlogs"
	"github.com/tinytelemetry/klaxon/internal/model"
)

// SourceFeed is one container's demultiplexed log feed.
// Satisfied by dockerlogs.Stream.
type SourceFeed interface {
	Source() model.Source
	Stdout() <-chan model.LineEvent
	Stderr() <-chan model.LineEvent
	Stop()
}

// ProcessFunc handles one cleaned line event. It must be safe for
// concurrent calls: every source feeds two goroutines into it.
type ProcessFunc func(ev model.LineEvent)

// CloseFunc is notified when one stream class of a source ends.
type CloseFunc func(source model.Source, stream model.Stream)

// SourceMultiplexer drives all source feeds through the pipeline: one
// goroutine per source per stream class, each preserving arrival order for
// its own sequence. A feed that ends is logged and left alone; the others
// are unaffected.
type SourceMultiplexer struct {
	ctx    context.Context
	cancel context.CancelFunc

	feeds   []SourceFeed
	process ProcessFunc
	onClose CloseFunc

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewSourceMultiplexer(parent context.Context, feeds []SourceFeed, process ProcessFunc, onClose CloseFunc) *SourceMultiplexer {
	ctx, cancel := context.WithCancel(parent)
	return &SourceMultiplexer{
		ctx:     ctx,
		cancel:  cancel,
		feeds:   feeds,
		process: process,
		onClose: onClose,
	}
}

func (m *SourceMultiplexer) Start() {
	m.startOnce.Do(func() {
		for _, feed := range m.feeds {
			feed := feed
			m.wg.Add(2)
			go m.forward(feed, model.StreamStdout, feed.Stdout())
			go m.forward(feed, model.StreamStderr, feed.Stderr())
		}
	})
}

func (m *SourceMultiplexer) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		for _, feed := range m.feeds {
			feed.Stop()
		}
		m.wg.Wait()
	})
}

// Wait blocks until every feed has ended on its own.
func (m *SourceMultiplexer) Wait() {
	m.wg.Wait()
}

func (m *SourceMultiplexer) HasSources() bool {
	return len(m.feeds) > 0
}

func (m *SourceMultiplexer) forward(feed SourceFeed, stream model.Stream, lines <-chan model.LineEvent) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case ev, ok := <-lines:
			if !ok {
				if m.onClose != nil && m.ctx.Err() == nil {
					m.onClose(feed.Source(), stream)
				}
				return
			}
			ev.Line = dockerlogs.TrimTimestamp(ev.Line)
			if ev.Line == "" {
				continue
			}
			m.process(ev)
		}
	}
}
