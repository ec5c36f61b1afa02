package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// JoinNotice tells a user something happened with a join request: an owner
// learns about a new request, a requester learns about a decision.
type JoinNotice struct {
	RequestID string `json:"request_id"`
	PoolID    string `json:"pool_id"`
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// Notifier delivers join notices. Delivery is best-effort everywhere; a
// failed notification never fails the request that triggered it.
type Notifier interface {
	Notify(userID string, n JoinNotice) error
}

// WebhookNotifier posts notices to an external notification relay.
type WebhookNotifier struct {
	Endpoint string
	Client   *http.Client
}

func NewWebhookNotifier(endpoint string) *WebhookNotifier {
	return &WebhookNotifier{Endpoint: endpoint, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (w *WebhookNotifier) Notify(userID string, n JoinNotice) error {
	b, _ := json.Marshal(map[string]any{"user_id": userID, "notice": n})
	_, _ = w.Client.Post(w.Endpoint, "application/json", bytes.NewReader(b))
	return nil
}
