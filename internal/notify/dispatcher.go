// Package notify renders and emits alerts. Every alert is written to the
// local sink synchronously; external webhook delivery is asynchronous,
// at-most-once, and never allowed to fail the pipeline.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tinytelemetry/klaxon/internal/metrics"
	"github.com/tinytelemetry/klaxon/internal/model"
)

// Dispatcher fans alerts out to the local sink and an optional webhook.
type Dispatcher struct {
	webhook *Webhook // nil = local sink only
	maxLen  int

	mu   sync.Mutex // serializes local sink writes
	sink io.Writer

	wg sync.WaitGroup
}

func New(sink io.Writer, webhook *Webhook, maxLen int) *Dispatcher {
	if maxLen <= 0 {
		maxLen = model.DefaultMaxLineLength
	}
	return &Dispatcher{
		sink:    sink,
		webhook: webhook,
		maxLen:  maxLen,
	}
}

// AlertNow emits one immediate alert. The local record is written before
// this returns; the webhook rendering is delivered in the background.
func (d *Dispatcher) AlertNow(source, message string) {
	d.writeLine(fmt.Sprintf("[ALERT] %s: %s", source, model.Truncate(message, model.LocalAlertLength)))
	d.deliver(fmt.Sprintf("[%s] %s", source, model.Truncate(message, d.maxLen)))
}

// Summary emits one rendered summary digest through both sinks.
func (d *Dispatcher) Summary(text string) {
	d.writeLine(text)
	d.deliver(text)
}

// Eventf writes one plain informational line to the local sink only.
func (d *Dispatcher) Eventf(format string, args ...any) {
	d.writeLine(fmt.Sprintf(format, args...))
}

// Wait blocks until all in-flight webhook deliveries complete.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) writeLine(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.sink, line)
}

func (d *Dispatcher) deliver(text string) {
	if d.webhook == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.webhook.Send(context.Background(), text); err != nil {
			metrics.ObserveWebhookFailure()
			d.writeLine(fmt.Sprintf("[WARN] webhook delivery failed: %v", err))
		}
	}()
}
