package decks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/randomtoy/klondike-go/internal/domain"
	"github.com/randomtoy/klondike-go/internal/ports"
)

// Named pairs a deck source with a name for logs.
type Named struct {
	Name   string
	Source ports.DeckSource
}

// Chain tries each source in order until one deals a deck.
type Chain struct {
	sources []Named
	logger  *slog.Logger
}

func NewChain(logger *slog.Logger, sources ...Named) *Chain {
	return &Chain{sources: sources, logger: logger}
}

func (c *Chain) Draw(ctx context.Context) ([]domain.CardRecord, error) {
	if len(c.sources) == 0 {
		return nil, errors.Join(domain.ErrDeckFetch, errors.New("no deck sources configured"))
	}
	var lastErr error
	for _, s := range c.sources {
		records, err := s.Source.Draw(ctx)
		if err == nil {
			return records, nil
		}
		lastErr = err
		if len(c.sources) > 1 {
			c.logger.WarnContext(ctx, "deck source failed, trying next", "source", s.Name, "error", err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}
