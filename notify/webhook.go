// Package notify delivers card events to an external HTTP endpoint.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openclaw/qrcards/card"
)

// EventCardGenerated is the only event type sent today.
const EventCardGenerated = "card.generated"

// Event is the JSON body posted to the webhook for each generated card.
type Event struct {
	Event        string `json:"event"`
	StudentID    string `json:"studentId"`
	AssignmentID string `json:"assignmentId,omitempty"`
	Kind         string `json:"kind"`
	Path         string `json:"path"`
	Payload      string `json:"payload"`
	Timestamp    int64  `json:"timestamp"`
}

// WebhookSender posts events to a configured URL.
type WebhookSender struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

// NewWebhookSender creates a WebhookSender for url. An empty url makes Send a
// no-op.
func NewWebhookSender(url string, log *slog.Logger) *WebhookSender {
	return &WebhookSender{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Send posts evt once. Non-2xx responses are logged but not treated as
// errors; transport failures are returned.
func (w *WebhookSender) Send(evt *Event) error {
	if w.url == "" {
		return nil
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("webhook marshal event: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		w.log.Error("webhook delivery failed", "error", err, "student_id", evt.StudentID)
		return fmt.Errorf("webhook POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.log.Info("webhook delivered", "status", resp.StatusCode, "student_id", evt.StudentID)
	} else {
		w.log.Warn("webhook non-2xx response", "status", resp.StatusCode, "student_id", evt.StudentID)
	}
	return nil
}

// NotifyCard implements card.Notifier.
func (w *WebhookSender) NotifyCard(res *card.Result) error {
	return w.Send(&Event{
		Event:        EventCardGenerated,
		StudentID:    res.Payload.StudentID,
		AssignmentID: res.Payload.AssignmentID,
		Kind:         string(res.Payload.Kind()),
		Path:         res.Path,
		Payload:      res.JSON,
		Timestamp:    res.CreatedAt.Unix(),
	})
}
