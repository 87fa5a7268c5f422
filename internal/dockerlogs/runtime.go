// Package dockerlogs connects klaxon to the container runtime: it lists
// running containers and opens their demultiplexed stdout/stderr log feeds
// as channels of line events.
package dockerlogs

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/tinytelemetry/klaxon/internal/model"
)

// Runtime wraps the Docker Engine API client.
type Runtime struct {
	cli *client.Client
}

// Connect builds a runtime client. An empty host uses the environment
// (DOCKER_HOST etc.) and falls back to the local socket; otherwise host is
// used verbatim (unix socket path URL or tcp://host:port).
func Connect(host string) (*Runtime, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to container runtime: %w", err)
	}
	return &Runtime{cli: cli}, nil
}

// Close releases the underlying client.
func (r *Runtime) Close() error { return r.cli.Close() }

// ListRunning enumerates running containers as sources. Failure here is a
// fatal startup condition for the caller.
func (r *Runtime) ListRunning(ctx context.Context) ([]model.Source, error) {
	containers, err := r.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing containers: %w", err)
	}

	sources := make([]model.Source, 0, len(containers))
	for _, c := range containers {
		sources = append(sources, model.Source{ID: c.ID, Name: containerName(c.Names, c.ID)})
	}
	return sources, nil
}

// containerName picks the primary display name. Docker reports names with a
// leading slash.
func containerName(names []string, id string) string {
	for _, name := range names {
		trimmed := strings.TrimPrefix(name, "/")
		if trimmed != "" {
			return trimmed
		}
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
