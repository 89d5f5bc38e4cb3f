package app

import "github.com/randomtoy/klondike-go/internal/domain"

// CardView is a card as the client sees it. A face-down card shows only its
// back image and placement.
type CardView struct {
	Code        string
	Suit        domain.Suit
	Rank        domain.Rank
	Color       domain.Color
	FaceUp      bool
	Image       string
	ActiveIndex int
	Offset      int
	Z           int
}

// PileView is one pile in display order, bottom card first.
type PileView struct {
	ID        string
	Kind      domain.PileKind
	Count     int
	Cards     []CardView
	Suit      domain.Suit
	Completed bool
}

// Board is a read-only snapshot of a game.
type Board struct {
	GameID string
	Ready  bool
	Won    bool
	// StockRecyclable is true when the stock is empty but the waste can be
	// turned back over.
	StockRecyclable bool
	Dragging        string
	Piles           []PileView
}

func buildBoard(id string, g *domain.Game) Board {
	b := Board{
		GameID:          id,
		Ready:           g.Dealt(),
		Won:             g.IsWon(),
		StockRecyclable: g.Stock().Len() == 0 && g.Waste().Len() > 0,
	}
	if tx := g.Current(); tx != nil {
		b.Dragging = tx.Card().Code()
	}
	for _, p := range g.Piles() {
		pv := PileView{ID: p.ID(), Kind: p.Kind(), Count: p.Len()}
		switch pile := p.(type) {
		case *domain.Stock:
			// Only the count of the stock is visible.
		case *domain.Waste:
			pv.Cards = cardViews(pile.Visible())
		case *domain.Foundation:
			pv.Cards = cardViews(pile.Visible())
			pv.Suit, _ = pile.Suit()
			pv.Completed = pile.Completed()
		case *domain.Tableau:
			pv.Cards = cardViews(pile.Cards())
		}
		b.Piles = append(b.Piles, pv)
	}
	return b
}

func cardViews(cards []*domain.Card) []CardView {
	out := make([]CardView, len(cards))
	for i, c := range cards {
		idx, ok := c.ActiveIndex()
		if !ok {
			idx = -1
		}
		cv := CardView{
			FaceUp:      c.FaceUp(),
			Image:       c.Back(),
			ActiveIndex: idx,
			Offset:      c.Offset(),
			Z:           c.Z(),
		}
		if c.FaceUp() {
			cv.Code = c.Code()
			cv.Suit = c.Suit()
			cv.Rank = c.Rank()
			cv.Color = c.Color()
			cv.Image = c.Front()
		}
		out[i] = cv
	}
	return out
}
