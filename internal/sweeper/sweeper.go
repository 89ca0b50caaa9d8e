package sweeper

import "context"

// Sweeper is a background loop run by cmd/sweeper next to the API.
type Sweeper interface {
	// Start runs until ctx is canceled or Stop is called
	Start(ctx context.Context) error

	// Stop waits for the current pass to finish
	Stop(ctx context.Context) error

	Name() string
}
