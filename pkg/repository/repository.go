package repository

import (
	"context"

	"github.com/m-mizutani/cinemood/pkg/model"
)

// HistoryReader supplies a user's watchlist. The recommendation pipeline only
// reads from it.
type HistoryReader interface {
	// ListHistory returns the user's watchlist in insertion order. A user
	// without a watchlist yields an empty list, not an error.
	ListHistory(ctx context.Context, userID string) ([]*model.HistoryItem, error)
}
