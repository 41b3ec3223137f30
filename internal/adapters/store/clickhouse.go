// Package store provides adapters for the CI routing-slip store.
package store

import (
	"context"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/slippy"
)

// slipLookup is the subset of slippy.SlipStore used to annotate review requests.
type slipLookup interface {
	FindByCommits(ctx context.Context, repository string, commits []string) (*slippy.Slip, string, error)
	Close() error
}

// ClickHouseAdapter wraps goLibMyCarrier's SlipStore to implement domain.SlipFinder.
type ClickHouseAdapter struct {
	store slipLookup
}

// NewClickHouseAdapter creates a new adapter wrapping the given SlipStore.
func NewClickHouseAdapter(store slippy.SlipStore) *ClickHouseAdapter {
	return &ClickHouseAdapter{store: store}
}

// FindByCommits returns the correlation ID of the routing slip matching any of commits,
// or "" when no slip matches.
func (a *ClickHouseAdapter) FindByCommits(ctx context.Context, repository string, commits []string) (string, error) {
	slip, _, err := a.store.FindByCommits(ctx, repository, commits)
	if err != nil {
		return "", err
	}
	if slip == nil {
		return "", nil
	}
	return slip.CorrelationID, nil
}

// Close releases any resources held by the store.
func (a *ClickHouseAdapter) Close() error {
	return a.store.Close()
}
