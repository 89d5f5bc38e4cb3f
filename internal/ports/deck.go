package ports

import (
	"context"

	"github.com/randomtoy/klondike-go/internal/domain"
)

// DeckSource deals a freshly shuffled 52-card deck.
type DeckSource interface {
	Draw(ctx context.Context) ([]domain.CardRecord, error)
}
