package messaging

import (
	"context"

	"github.com/feral-file/covenant-witness/internal/domain"
)

// Publisher defines the interface for publishing notifications to message queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishNotification publishes a notification message to the message broker
	PublishNotification(ctx context.Context, msg *domain.NotificationMessage) error
	// Close closes the connection
	Close()
}
