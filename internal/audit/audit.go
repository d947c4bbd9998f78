package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Event is one audit record: a login outcome or a query execution.
type Event struct {
	Type       string    `json:"type"`
	Username   string    `json:"username,omitempty"`
	Role       string    `json:"role,omitempty"`
	TemplateID string    `json:"template_id,omitempty"`
	Rows       int       `json:"rows,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Event types.
const (
	EventLoginSucceeded = "login_succeeded"
	EventLoginFailed    = "login_failed"
	EventQueryExecuted  = "query_executed"
	EventQueryFailed    = "query_failed"
)

// Backend delivers encoded audit events to a broker.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher encodes events and hands them to the configured backend.
// Publishing is best-effort: a broker fault never fails the request that
// produced the event.
type Publisher struct {
	backend Backend
	channel string
}

func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// Publish encodes and sends one event. A nil Publisher is a no-op.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.backend == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	_, _ = p.backend.Publish(ctx, p.channel, data, map[string]string{"type": event.Type})
}

// Close closes the underlying backend. Safe on a nil Publisher.
func (p *Publisher) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
