package pipeline

import "fmt"

// ProgressEvent reports the state of one document in a batch.
type ProgressEvent struct {
	Document string
	Status   ProgressStatus
	Message  string
}

type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressReporter buffers progress events for a consumer goroutine.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffer of size.
func NewProgressReporter(size int) *ProgressReporter {
	return &ProgressReporter{ch: make(chan ProgressEvent, size)}
}

// Emit sends an event without blocking. If the buffer is full, the event
// is dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent { return pr.ch }

func (pr *ProgressReporter) Close() { close(pr.ch) }

// FormatProgress formats an event as a status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.Document)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.Document)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s complete", event.Document)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Document, event.Message)
	}
	return fmt.Sprintf("  ? %s (unknown status)", event.Document)
}
