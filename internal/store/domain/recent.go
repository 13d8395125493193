package domain

import (
	"context"
	"time"
)

// RecentStore keeps a bounded, most-recent-first set of product ids per user
type RecentStore interface {
	// Add moves productID to the front, evicting the oldest entries beyond
	// capacity and refreshing the set's expiry, in one atomic step.
	Add(ctx context.Context, userID, productID string, viewedAt time.Time) error
	// List returns product ids newest first
	List(ctx context.Context, userID string) ([]string, error)
	Ping(ctx context.Context) error
}
