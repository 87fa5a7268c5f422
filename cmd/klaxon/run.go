package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/klaxon/internal/dockerlogs"
	"github.com/tinytelemetry/klaxon/internal/filter"
	"github.com/tinytelemetry/klaxon/internal/gate"
	"github.com/tinytelemetry/klaxon/internal/httpserver"
	"github.com/tinytelemetry/klaxon/internal/metrics"
	"github.com/tinytelemetry/klaxon/internal/model"
	"github.com/tinytelemetry/klaxon/internal/notify"
	"github.com/tinytelemetry/klaxon/internal/summary"
	"github.com/tinytelemetry/klaxon/internal/track"
)

// runDaemon wires the pipeline and runs until a shutdown signal. A nil
// return is a clean shutdown (exit 0).
func runDaemon(cfg appConfig) error {
	configureRuntimeLogger()

	// Patterns were validated at config load; recompile for use.
	filt, err := filter.New(cfg.ErrorPattern, cfg.IgnorePattern)
	if err != nil {
		return configErrorf("%v", err)
	}

	var since time.Time
	if cfg.Since != "" {
		since, err = parseSince(cfg.Since, time.Now())
		if err != nil {
			return configErrorf("%v", err)
		}
	}

	runtime, err := dockerlogs.Connect(cfg.DockerHost)
	if err != nil {
		return err
	}
	defer runtime.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sources, err := resolveSources(ctx, runtime, cfg)
	if err != nil {
		return err
	}

	var webhook *notify.Webhook
	if cfg.WebhookURL != "" {
		webhook = notify.NewWebhook(cfg.WebhookURL)
	}
	dispatcher := notify.New(os.Stdout, webhook, cfg.MaxLineLength)
	tracker := track.New()
	alertGate := gate.New(time.Duration(cfg.RateLimit) * time.Second)
	pipeline := NewPipeline(filt, tracker, alertGate, dispatcher)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, tracker)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("starting status API: %w", err)
		}
		defer apiServer.Stop()
	}

	// Open one demultiplexed feed per source; a source that cannot be
	// streamed is skipped, the rest keep going.
	feeds := make([]SourceFeed, 0, len(sources))
	for _, src := range sources {
		stream, err := runtime.Open(ctx, src, since)
		if err != nil {
			dispatcher.Eventf("skipping %s: %v", src.Name, err)
			continue
		}
		feeds = append(feeds, stream)
	}

	printStartupBanner(cfg, filt, sources, webhook)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now — not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	mux := NewSourceMultiplexer(ctx, feeds, pipeline.Process, func(src model.Source, stream model.Stream) {
		dispatcher.Eventf("source %s (%s) closed", src.Name, stream)
	})
	mux.Start()

	if !mux.HasSources() {
		dispatcher.Eventf("no source streams could be opened; only summary ticks will run")
	}

	aggregator := summary.New(tracker, dispatcher, time.Duration(cfg.SummaryInterval)*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		aggregator.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("daemon: errgroup exited with error: %v", err)
	}

	cancel()
	mux.Stop()
	dispatcher.Wait()
	return nil
}

// resolveSources lists running containers and applies the watch selection.
// A failed listing is fatal; an empty selection is a configuration error.
func resolveSources(ctx context.Context, runtime *dockerlogs.Runtime, cfg appConfig) ([]model.Source, error) {
	running, err := runtime.ListRunning(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.WatchAll {
		if len(running) == 0 {
			return nil, configErrorf("no running containers to watch")
		}
		return running, nil
	}

	byName := make(map[string]model.Source, len(running))
	for _, src := range running {
		byName[src.Name] = src
	}

	var sources []model.Source
	for _, name := range targetNames(cfg.Containers) {
		src, ok := byName[name]
		if !ok {
			log.Printf("container %q is not running, skipping", name)
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, configErrorf("none of the requested containers are running")
	}
	return sources, nil
}

func configureRuntimeLogger() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stderr)
}
