package transport

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/config"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/providers/jetstream"
	"github.com/feral-file/covenant-witness/internal/webhook"
)

// NewSender builds the notification sender selected by the configuration.
// The returned cleanup func releases the transport's connections and is never nil.
func NewSender(
	cfg config.NotificationConfig,
	natsCfg config.NATSConfig,
	natsJS adapter.NatsJetStream,
	clock adapter.Clock,
) (notification.Sender, func(), error) {
	noop := func() {}

	switch cfg.Transport {
	case config.TransportLog, "":
		return notification.NewLogSender(), noop, nil

	case config.TransportWebhook:
		if cfg.Webhook.URL == "" {
			return nil, noop, fmt.Errorf("webhook transport requires a url")
		}
		signer := webhook.NewSigner(cfg.Webhook.Secret, adapter.NewJSON(), adapter.NewJCS())
		client := adapter.NewHTTPClient(cfg.Webhook.Timeout)
		logger.Info("Using webhook notification transport", zap.String("url", cfg.Webhook.URL))
		return notification.NewWebhookSender(cfg.Webhook.URL, client, signer, clock), noop, nil

	case config.TransportNATS:
		publisher, err := jetstream.NewPublisher(jetstream.Config{
			URL:            natsCfg.URL,
			StreamName:     natsCfg.StreamName,
			Subject:        natsCfg.Subject,
			MaxReconnects:  natsCfg.MaxReconnects,
			ReconnectWait:  natsCfg.ReconnectWait,
			ConnectionName: natsCfg.ConnectionName,
		}, natsJS, adapter.NewJSON())
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using NATS notification transport",
			zap.String("stream", natsCfg.StreamName),
			zap.String("subject", natsCfg.Subject),
		)
		return notification.NewNATSSender(publisher), publisher.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown notification transport %q", cfg.Transport)
	}
}
