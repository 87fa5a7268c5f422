package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/klaxon/internal/filter"
	"github.com/tinytelemetry/klaxon/internal/model"
	"github.com/tinytelemetry/klaxon/internal/notify"
)

// printStartupBanner writes the startup description of the active patterns
// and watched sources to the local sink.
func printStartupBanner(cfg appConfig, filt *filter.Filter, sources []model.Source, webhook *notify.Webhook) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name)
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, cyan.Bold(true).Render("    klaxon")+" "+dim.Render("v"+version))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Watching"))
	lines = append(lines, fmt.Sprintf("    %s  %d container(s): %s", check, len(sources), cyan.Render(strings.Join(names, ", "))))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Patterns"))
	lines = append(lines, fmt.Sprintf("    %s  error   %s", check, cyan.Render(filt.ErrorPattern())))
	if ignore := filt.IgnorePattern(); ignore != "" {
		lines = append(lines, fmt.Sprintf("    %s  ignore  %s", check, cyan.Render(ignore)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  ignore  %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Alerting"))
	lines = append(lines, fmt.Sprintf("    %s  rate limit %ds, summary every %ds", check, cfg.RateLimit, cfg.SummaryInterval))
	if webhook != nil {
		lines = append(lines, fmt.Sprintf("    %s  webhook  %s", check, cyan.Render(webhook.Family().String())))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  webhook  %s", dot, dim.Render("local sink only")))
	}
	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  status API  %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  status API  %s", dot, dim.Render("disabled")))
	}

	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press Ctrl+C to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}
