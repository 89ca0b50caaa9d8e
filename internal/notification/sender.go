package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/messaging"
	"github.com/feral-file/covenant-witness/internal/webhook"
)

// Sender hands a notification message to the delivery transport
//
//go:generate mockgen -source=sender.go -destination=../mocks/sender.go -package=mocks -mock_names=Sender=MockSender
type Sender interface {
	// Name returns the transport name
	Name() string
	// Send delivers the message; an error means the transport did not accept it
	Send(ctx context.Context, msg *domain.NotificationMessage) error
}

type logSender struct{}

// NewLogSender creates a sender that only logs, for development
func NewLogSender() Sender {
	return &logSender{}
}

func (s *logSender) Name() string {
	return "log"
}

func (s *logSender) Send(ctx context.Context, msg *domain.NotificationMessage) error {
	logger.InfoCtx(ctx, "Notification delivered to log transport",
		zap.String("event_id", msg.EventID),
		zap.String("kind", string(msg.Kind)),
		zap.Int("recipients", len(msg.Recipients)),
		zap.ByteString("payload", msg.Payload))
	return nil
}

type webhookSender struct {
	url    string
	client adapter.HTTPClient
	signer *webhook.Signer
	clock  adapter.Clock
}

// NewWebhookSender creates a sender that POSTs signed messages to a relay
func NewWebhookSender(url string, client adapter.HTTPClient, signer *webhook.Signer, clock adapter.Clock) Sender {
	return &webhookSender{
		url:    url,
		client: client,
		signer: signer,
		clock:  clock,
	}
}

func (s *webhookSender) Name() string {
	return "webhook"
}

func (s *webhookSender) Send(ctx context.Context, msg *domain.NotificationMessage) error {
	signed, err := s.signer.Sign(msg, s.clock.Now())
	if err != nil {
		return err
	}

	if _, err := s.client.Post(ctx, s.url, signed.Headers(), signed.Body); err != nil {
		return fmt.Errorf("relay rejected notification: %w", err)
	}
	return nil
}

type natsSender struct {
	publisher messaging.Publisher
}

// NewNATSSender creates a sender that publishes messages to JetStream
func NewNATSSender(publisher messaging.Publisher) Sender {
	return &natsSender{publisher: publisher}
}

func (s *natsSender) Name() string {
	return "nats"
}

func (s *natsSender) Send(ctx context.Context, msg *domain.NotificationMessage) error {
	return s.publisher.PublishNotification(ctx, msg)
}
