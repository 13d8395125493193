package command

import (
	"context"
	"time"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/logger"
)

// RecordViewCommand represents a product view by a user
type RecordViewCommand struct {
	UserID    string
	ProductID string
}

// RecordViewHandler handles record view command. Tracking is best-effort:
// anonymous callers and store failures are reported as untracked, not errors.
type RecordViewHandler struct {
	recent    domain.RecentStore
	publisher domain.EventPublisher
	metrics   domain.Recorder
	now       func() time.Time
}

// NewRecordViewHandler creates a new record view handler
func NewRecordViewHandler(recent domain.RecentStore, publisher domain.EventPublisher, metrics domain.Recorder) *RecordViewHandler {
	return &RecordViewHandler{
		recent:    recent,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Handle records the view and reports whether it was tracked
func (h *RecordViewHandler) Handle(ctx context.Context, cmd RecordViewCommand) (bool, error) {
	// Anonymous views are a no-op whatever the id
	if cmd.UserID == "" {
		return false, nil
	}
	if !domain.IsValidProductID(cmd.ProductID) {
		return false, domain.ErrInvalidProductID
	}

	viewedAt := h.now()
	if err := h.recent.Add(ctx, cmd.UserID, cmd.ProductID, viewedAt); err != nil {
		h.metrics.RecentDegraded("record")
		logger.Warn(ctx).Err(err).
			Str("user_id", cmd.UserID).
			Str("product_id", cmd.ProductID).
			Msg("Failed to record view, skipping")
		return false, nil
	}

	event := domain.ProductViewedEvent{
		UserID:    cmd.UserID,
		ProductID: cmd.ProductID,
		ViewedAt:  viewedAt.UTC(),
	}
	if err := h.publisher.PublishProductViewed(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).Str("product_id", cmd.ProductID).Msg("Failed to publish product viewed event")
	}

	return true, nil
}
