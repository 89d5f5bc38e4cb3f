package decks

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/randomtoy/klondike-go/internal/domain"
)

//go:embed data/standard.json
var deckFS embed.FS

// BackImage is the card back used for the embedded deck.
const BackImage = "https://deckofcardsapi.com/static/img/back.png"

// EmbeddedStore deals from an embedded standard deck, shuffled locally.
type EmbeddedStore struct {
	rng domain.RNG

	once    sync.Once
	records []domain.CardRecord
	err     error

	mu sync.Mutex
}

func NewEmbeddedStore(rng domain.RNG) *EmbeddedStore {
	return &EmbeddedStore{rng: rng}
}

func (s *EmbeddedStore) init() {
	raw, err := deckFS.ReadFile("data/standard.json")
	if err != nil {
		s.err = fmt.Errorf("read embedded deck: %w", err)
		return
	}
	var records []domain.CardRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		s.err = fmt.Errorf("parse embedded deck: %w", err)
		return
	}
	for i := range records {
		if records[i].Back == "" {
			records[i].Back = BackImage
		}
	}
	s.records = records
}

func (s *EmbeddedStore) Draw(_ context.Context) ([]domain.CardRecord, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDeckFetch, s.err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Shuffle(s.records, s.rng), nil
}
