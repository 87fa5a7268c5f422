package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/klaxon/internal/model"
)

type fakeFeed struct {
	source  model.Source
	stdout  chan model.LineEvent
	stderr  chan model.LineEvent
	stopped chan struct{}
}

func newFakeFeed(name string, buffer int) *fakeFeed {
	return &fakeFeed{
		source:  model.Source{ID: "id-" + name, Name: name},
		stdout:  make(chan model.LineEvent, buffer),
		stderr:  make(chan model.LineEvent, buffer),
		stopped: make(chan struct{}),
	}
}

func (f *fakeFeed) Source() model.Source           { return f.source }
func (f *fakeFeed) Stdout() <-chan model.LineEvent { return f.stdout }
func (f *fakeFeed) Stderr() <-chan model.LineEvent { return f.stderr }

func (f *fakeFeed) Stop() {
	select {
	case <-f.stopped:
		return
	default:
		close(f.stopped)
		close(f.stdout)
		close(f.stderr)
	}
}

func (f *fakeFeed) send(stream model.Stream, line string) {
	ev := model.LineEvent{Source: f.source, Stream: stream, Line: line}
	if stream == model.StreamStderr {
		f.stderr <- ev
		return
	}
	f.stdout <- ev
}

type captureProcessor struct {
	mu     sync.Mutex
	events []model.LineEvent
}

func (c *captureProcessor) process(ev model.LineEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureProcessor) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Line)
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for condition")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSourceMultiplexer_ForwardsBothStreams(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := newFakeFeed("web", 4)
	proc := &captureProcessor{}
	mux := NewSourceMultiplexer(ctx, []SourceFeed{feed}, proc.process, nil)
	mux.Start()
	defer mux.Stop()

	feed.send(model.StreamStdout, "from stdout")
	feed.send(model.StreamStderr, "from stderr")

	waitFor(t, func() bool { return len(proc.lines()) == 2 })

	got := map[string]bool{}
	for _, line := range proc.lines() {
		got[line] = true
	}
	if !got["from stdout"] || !got["from stderr"] {
		t.Fatalf("missing expected lines: %+v", proc.lines())
	}
}

func TestSourceMultiplexer_StripsTimestampAndDropsBlank(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := newFakeFeed("web", 4)
	proc := &captureProcessor{}
	mux := NewSourceMultiplexer(ctx, []SourceFeed{feed}, proc.process, nil)
	mux.Start()
	defer mux.Stop()

	feed.send(model.StreamStdout, "2024-01-15T10:30:45.123456789Z Error: boom")
	feed.send(model.StreamStdout, "2024-01-15T10:30:46.000000000Z ")
	feed.send(model.StreamStdout, "2024-01-15T10:30:47.000000000Z second line")

	waitFor(t, func() bool { return len(proc.lines()) == 2 })

	lines := proc.lines()
	if lines[0] != "Error: boom" || lines[1] != "second line" {
		t.Fatalf("lines = %+v, want timestamp-stripped, blank dropped", lines)
	}
}

func TestSourceMultiplexer_PreservesOrderPerStream(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := newFakeFeed("web", 16)
	proc := &captureProcessor{}
	mux := NewSourceMultiplexer(ctx, []SourceFeed{feed}, proc.process, nil)
	mux.Start()
	defer mux.Stop()

	want := []string{"one", "two", "three", "four"}
	for _, line := range want {
		feed.send(model.StreamStdout, line)
	}

	waitFor(t, func() bool { return len(proc.lines()) == len(want) })

	for i, line := range proc.lines() {
		if line != want[i] {
			t.Fatalf("lines = %+v, want arrival order %+v", proc.lines(), want)
		}
	}
}

func TestSourceMultiplexer_ClosureNotifiesOnce(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := newFakeFeed("web", 1)
	proc := &captureProcessor{}

	var mu sync.Mutex
	closed := map[model.Stream]int{}
	mux := NewSourceMultiplexer(ctx, []SourceFeed{feed}, proc.process, func(src model.Source, stream model.Stream) {
		mu.Lock()
		defer mu.Unlock()
		if src.Name != "web" {
			t.Errorf("closure source = %q, want web", src.Name)
		}
		closed[stream]++
	})
	mux.Start()

	feed.Stop()
	mux.Wait()

	mu.Lock()
	defer mu.Unlock()
	if closed[model.StreamStdout] != 1 || closed[model.StreamStderr] != 1 {
		t.Fatalf("closure counts = %+v, want one per stream class", closed)
	}
}

func TestSourceMultiplexer_StopInvokesFeedStop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := newFakeFeed("web", 1)
	proc := &captureProcessor{}
	mux := NewSourceMultiplexer(ctx, []SourceFeed{feed}, proc.process, nil)
	mux.Start()

	mux.Stop()

	select {
	case <-feed.stopped:
	default:
		t.Fatal("expected feed Stop() to be called")
	}
}
