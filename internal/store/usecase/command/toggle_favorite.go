package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/logger"
)

// ToggleFavoriteCommand represents the command to flip a favorite
type ToggleFavoriteCommand struct {
	UserID    string
	ProductID string
}

// ToggleFavoriteResult reports the membership after the toggle
type ToggleFavoriteResult struct {
	IsFavorited bool   `json:"isFavorited"`
	Message     string `json:"message"`
}

// ToggleFavoriteHandler handles toggle favorite command
type ToggleFavoriteHandler struct {
	users     domain.UserRepository
	publisher domain.EventPublisher
	metrics   domain.Recorder
}

// NewToggleFavoriteHandler creates a new toggle favorite handler
func NewToggleFavoriteHandler(users domain.UserRepository, publisher domain.EventPublisher, metrics domain.Recorder) *ToggleFavoriteHandler {
	return &ToggleFavoriteHandler{users: users, publisher: publisher, metrics: metrics}
}

// Handle executes the toggle favorite command
func (h *ToggleFavoriteHandler) Handle(ctx context.Context, cmd ToggleFavoriteCommand) (*ToggleFavoriteResult, error) {
	if !domain.IsValidProductID(cmd.ProductID) {
		return nil, domain.ErrInvalidProductID
	}

	user, err := h.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	result := &ToggleFavoriteResult{}
	if user.HasFavorite(cmd.ProductID) {
		if err := h.users.RemoveFavorite(ctx, cmd.UserID, cmd.ProductID); err != nil {
			return nil, fmt.Errorf("failed to remove favorite: %w", err)
		}
		result.Message = "Removed from favorites"
	} else {
		if err := h.users.AddFavorite(ctx, cmd.UserID, cmd.ProductID); err != nil {
			return nil, fmt.Errorf("failed to add favorite: %w", err)
		}
		result.IsFavorited = true
		result.Message = "Added to favorites"
	}

	h.metrics.FavoriteToggled(result.IsFavorited)

	event := domain.FavoriteToggledEvent{
		UserID:      cmd.UserID,
		ProductID:   cmd.ProductID,
		IsFavorited: result.IsFavorited,
		ToggledAt:   time.Now().UTC(),
	}
	if err := h.publisher.PublishFavoriteToggled(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).Str("product_id", cmd.ProductID).Msg("Failed to publish favorite toggled event")
	}

	return result, nil
}
