package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// ResolutionEvent is published after every successful resolution.
type ResolutionEvent struct {
	ID        string    `json:"id"`
	Curie     string    `json:"curie"`
	Prefix    string    `json:"prefix"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher publishes resolution events to NATS. A nil publisher
// is valid and publishes nothing, so callers never need to branch on
// whether events are enabled.
type EventPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *slog.Logger
}

// NewEventPublisher connects to NATS and returns a publisher. An empty
// URL disables event publishing and returns nil.
func NewEventPublisher(url, subjectPrefix string, logger *slog.Logger) (*EventPublisher, error) {
	if url == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &EventPublisher{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}, nil
}

// PublishResolution emits one resolution event on
// <subject_prefix>.<prefix>. Publish failures are logged, never
// surfaced; event delivery must not affect the resolution path.
func (p *EventPublisher) PublishResolution(_ context.Context, curie, url string) {
	if p == nil || p.conn == nil {
		return
	}

	prefix, _, _ := strings.Cut(curie, ":")
	event := ResolutionEvent{
		ID:        uuid.NewString(),
		Curie:     curie,
		Prefix:    strings.ToLower(prefix),
		URL:       url,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal resolution event", "error", err)
		return
	}

	subject := p.subjectPrefix + "." + subjectToken(event.Prefix)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("Failed to publish resolution event",
			"subject", subject,
			"error", err)
	}
}

// subjectToken makes a namespace prefix usable as a single NATS subject
// token. Dotted prefixes like gramene.growthstage would otherwise span
// multiple tokens and change wildcard-subscription granularity.
func subjectToken(prefix string) string {
	return strings.ReplaceAll(prefix, ".", "_")
}

// StartEmbeddedNATS starts an in-process NATS server on a random port
// and returns it with its client URL. The caller owns the shutdown.
func StartEmbeddedNATS(readyTimeout time.Duration) (*server.Server, string, error) {
	opts := &server.Options{
		Port:   -1, // Random available port
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, "", fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, "", fmt.Errorf("embedded NATS server failed to start")
	}

	return ns, ns.ClientURL(), nil
}

// Close drains and closes the NATS connection.
func (p *EventPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("Failed to drain NATS connection", "error", err)
	}
	p.conn.Close()
}
