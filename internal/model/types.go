package model

// Source identifies one monitored log origin (a container). The runtime
// supplies the opaque ID; Name is the human-facing tracking key and is
// unique within a run.
type Source struct {
	ID   string
	Name string
}

// Stream is the class of a container log feed.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// LineEvent carries one raw log line with source metadata.
// It is the transport contract between the runtime glue and the pipeline.
type LineEvent struct {
	Source Source
	Stream Stream
	Line   string
}

// Truncate bounds s to max bytes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
