package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ConnectNATS dials the NATS server at url.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return conn, nil
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher publishes events as JSON on "<prefix>.<event type>".
func NewNATSPublisher(conn *nats.Conn, prefix string) Publisher {
	return &natsPublisher{conn: conn, prefix: prefix}
}

func (p *natsPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.conn == nil {
		return fmt.Errorf("nats connection not configured")
	}

	payload, err := encode(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := p.conn.Publish(Subject(p.prefix, event.Type), payload); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	return nil
}
