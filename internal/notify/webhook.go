package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Family selects the webhook payload shape. It is resolved once from the
// endpoint URL at configuration time, never per send.
type Family int

const (
	// FamilySlack is the default family: {"text": "..."}.
	FamilySlack Family = iota

	// FamilyLark is used for Lark/Feishu bot endpoints:
	// {"msg_type": "text", "content": {"text": "..."}}.
	FamilyLark
)

func (f Family) String() string {
	switch f {
	case FamilyLark:
		return "lark"
	default:
		return "slack"
	}
}

// DetectFamily classifies an endpoint URL. Lark is pattern-matched;
// everything else falls back to the Slack-compatible shape.
func DetectFamily(endpoint string) Family {
	lowered := strings.ToLower(endpoint)
	if strings.Contains(lowered, "larksuite.com") || strings.Contains(lowered, "feishu") {
		return FamilyLark
	}
	return FamilySlack
}

// sendTimeout bounds one webhook delivery end to end.
const sendTimeout = 10 * time.Second

// Webhook posts alert text to one external notification endpoint.
type Webhook struct {
	endpoint string
	family   Family
	client   *http.Client
}

func NewWebhook(endpoint string) *Webhook {
	return &Webhook{
		endpoint: endpoint,
		family:   DetectFamily(endpoint),
		client:   &http.Client{Timeout: sendTimeout},
	}
}

func (w *Webhook) Family() Family { return w.family }

// Send delivers text once, best effort. Non-2xx responses are errors.
// Never retried by design; the caller has already emitted the local record.
func (w *Webhook) Send(ctx context.Context, text string) error {
	var payload any
	switch w.family {
	case FamilyLark:
		payload = map[string]any{
			"msg_type": "text",
			"content":  map[string]string{"text": text},
		}
	default:
		payload = map[string]string{"text": text}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Correlation id for downstream receivers; one per delivery.
	req.Header.Set("X-Klaxon-Alert-Id", uuid.NewString())

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
