package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/messaging"
)

const (
	streamSetupTimeout = 10 * time.Second
	// DEFAULT_DUPLICATE_WINDOW bounds how long the stream remembers message IDs
	DEFAULT_DUPLICATE_WINDOW = 10 * time.Minute
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	Subject        string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	// DuplicateWindow is how long JetStream drops repeated event IDs
	DuplicateWindow time.Duration
}

type publisher struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	streamName string
	subject    string
	json       adapter.JSON
}

// NewPublisher creates a new NATS JetStream publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	// Declare the stream so a fresh NATS server accepts publishes on every kind subject
	window := cfg.DuplicateWindow
	if window <= 0 {
		window = DEFAULT_DUPLICATE_WINDOW
	}
	ctx, cancel := context.WithTimeout(context.Background(), streamSetupTimeout)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{cfg.Subject + ".>"},
		Storage:    jetstream.FileStorage,
		Duplicates: window,
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}
	logger.Info("JetStream stream ready",
		zap.String("stream", cfg.StreamName),
		zap.String("subjects", cfg.Subject+".>"),
		zap.Duration("duplicate_window", window))

	return &publisher{
		nc:         nc,
		js:         js,
		streamName: cfg.StreamName,
		subject:    cfg.Subject,
		json:       jsonAdapter,
	}, nil
}

// PublishNotification publishes a notification message to NATS JetStream.
// The event ID doubles as the JetStream message ID so the stream drops redeliveries.
func (p *publisher) PublishNotification(ctx context.Context, msg *domain.NotificationMessage) error {
	logger.DebugCtx(ctx, "Publishing notification",
		zap.String("event_id", msg.EventID),
		zap.String("kind", string(msg.Kind)),
		zap.String("stream", p.streamName))

	data, err := p.json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = p.js.Publish(ctx, p.buildSubject(msg), data, jetstream.WithMsgID(msg.EventID))
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// buildSubject constructs the NATS subject for a notification
// Format: {subject}.{kind}, e.g. covenant.notifications.welcome
func (p *publisher) buildSubject(msg *domain.NotificationMessage) string {
	return fmt.Sprintf("%s.%s", p.subject, msg.Kind)
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
