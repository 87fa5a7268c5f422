package model

import "time"

// Shared defaults used by the daemon and its packages.
const (
	DefaultSummaryInterval = 300 * time.Second
	DefaultRateLimitWindow = 120 * time.Second

	// DefaultErrorPattern matches common error markers, case-insensitively.
	DefaultErrorPattern = `error|panic|fatal|fail|exception|traceback`

	// DefaultIgnorePattern drops routine health-probe chatter.
	DefaultIgnorePattern = `healthcheck ok`

	// DefaultMaxLineLength bounds the rendered webhook alert text.
	DefaultMaxLineLength = 500

	// LocalAlertLength bounds the one-line local-sink alert record.
	LocalAlertLength = 200

	// SummarySampleLength bounds the sample shown per summary entry.
	SummarySampleLength = 160

	// SummaryTopHits is how many fingerprints each summary block ranks.
	SummaryTopHits = 5
)
