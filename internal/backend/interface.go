// Package backend builds the record store selected by configuration.
package backend

import (
	"context"

	"igreja/internal/services"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// Result holds the store, the optional panel sync publisher and the cleanup
// to run on shutdown. Publisher is nil when AMQP is not configured.
type Result struct {
	Store     services.Store
	Publisher services.PanelPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}
