// Package notify publishes run-completion events over NATS so downstream
// systems (search indexers, cache purgers, chat hooks) can react to
// publishes. Notification failure never fails a run; callers downgrade
// errors from here to warnings.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// Event is the payload published after each run.
type Event struct {
	RunID     string    `json:"run_id"`
	Outcome   string    `json:"outcome"`
	OutDir    string    `json:"out_dir"`
	Units     int       `json:"units"`
	Published int       `json:"published"`
	Issues    int       `json:"issues"`
	Commit    string    `json:"commit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends run-completion events.
type Publisher interface {
	PublishRun(event *Event) error
	Close() error
}

// NoopPublisher is used when notifications are not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishRun(*Event) error { return nil }
func (NoopPublisher) Close() error            { return nil }

// NATSPublisher publishes events to a JetStream subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSPublisher connects to the NATS server and prepares a JetStream
// context for publishing to subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("notify subject is required")
	}

	conn, err := nats.Connect(url, nats.Timeout(2*time.Second), nats.RetryOnFailedConnect(false))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	slog.Info("NATS publisher initialized", "url", url, logfields.Subject(subject))
	return &NATSPublisher{conn: conn, js: js, subject: subject}, nil
}

// PublishRun publishes one run-completion event.
func (p *NATSPublisher) PublishRun(event *Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published run event",
		logfields.RunID(event.RunID),
		logfields.Outcome(event.Outcome),
		logfields.Subject(p.subject))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
