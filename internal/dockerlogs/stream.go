package dockerlogs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/tinytelemetry/klaxon/internal/model"
)

const (
	// DefaultLineBuffer is the channel buffer size per stream class.
	DefaultLineBuffer = 10_000

	// maxLineSize is the maximum size (in bytes) of a single log line.
	maxLineSize = 1024 * 1024 // 1MB
)

// timestampPrefix matches the daemon's leading RFC3339Nano timestamp frame
// when logs are requested with timestamps.
var timestampPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})\s+`)

// TrimTimestamp strips the runtime's line-leading timestamp span, if present.
func TrimTimestamp(line string) string {
	return timestampPrefix.ReplaceAllString(line, "")
}

// Stream is one container's live log feed, demultiplexed by stream class.
// Both channels close when the underlying sequence ends; the feed is not
// restartable.
type Stream struct {
	source model.Source
	stdout chan model.LineEvent
	stderr chan model.LineEvent

	closer   io.Closer
	stopOnce sync.Once
}

func (s *Stream) Source() model.Source           { return s.source }
func (s *Stream) Stdout() <-chan model.LineEvent { return s.stdout }
func (s *Stream) Stderr() <-chan model.LineEvent { return s.stderr }

// Stop tears the feed down. Safe to call more than once.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() {
		if s.closer != nil {
			_ = s.closer.Close()
		}
	})
}

// Open follows a container's logs from since (zero = from now). TTY
// containers produce a raw stream that all lands on stdout; otherwise the
// multiplexed stream is split by stdcopy. A failure here means this one
// source is skipped; the caller decides.
func (r *Runtime) Open(ctx context.Context, src model.Source, since time.Time) (*Stream, error) {
	tty := false
	if inspect, err := r.cli.ContainerInspect(ctx, src.ID); err == nil && inspect.Config != nil {
		tty = inspect.Config.Tty
	}

	opts := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Timestamps: true,
	}
	if !since.IsZero() {
		opts.Since = since.UTC().Format(time.RFC3339)
	}

	rc, err := r.cli.ContainerLogs(ctx, src.ID, opts)
	if err != nil {
		return nil, fmt.Errorf("opening logs for %s: %w", src.Name, err)
	}

	s := &Stream{
		source: src,
		stdout: make(chan model.LineEvent, DefaultLineBuffer),
		stderr: make(chan model.LineEvent, DefaultLineBuffer),
		closer: rc,
	}

	if tty {
		close(s.stderr)
		go s.pump(ctx, rc, model.StreamStdout, s.stdout)
		return s, nil
	}

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(outW, errW, rc)
		_ = outW.CloseWithError(err)
		_ = errW.CloseWithError(err)
	}()
	go s.pump(ctx, outR, model.StreamStdout, s.stdout)
	go s.pump(ctx, errR, model.StreamStderr, s.stderr)
	return s, nil
}

// pump scans one stream class into its channel until EOF or cancellation,
// then closes the channel. Lines are forwarded in arrival order.
func (s *Stream) pump(ctx context.Context, r io.Reader, stream model.Stream, ch chan model.LineEvent) {
	defer close(ch)

	scanner := bufio.NewScanner(r)
	buf := make([]byte, maxLineSize)
	scanner.Buffer(buf, maxLineSize)

	for scanner.Scan() {
		ev := model.LineEvent{Source: s.source, Stream: stream, Line: scanner.Text()}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("dockerlogs: %s %s scanner error: %v", s.source.Name, stream, err)
	}
}
