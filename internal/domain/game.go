package domain

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	DeckSize        = 52
	FoundationCount = 4
	TableauCount    = 7
	// TableauDealCount is the number of cards dealt into the columns.
	TableauDealCount = TableauCount * (TableauCount + 1) / 2
)

// Game owns every pile and card of one deal.
type Game struct {
	stock       *Stock
	waste       *Waste
	foundations [FoundationCount]*Foundation
	tableaux    [TableauCount]*Tableau

	cards map[string]*Card

	dealt bool
	over  bool

	current      *Transaction
	suppressFlip *Tableau

	sink  Sink
	onWin func()
}

// Option configures a Game.
type Option func(*Game)

// WithSink routes render instructions to s.
func WithSink(s Sink) Option {
	return func(g *Game) { g.sink = s }
}

// WithWinHandler registers fn to run once when the last foundation completes.
func WithWinHandler(fn func()) Option {
	return func(g *Game) { g.onWin = fn }
}

// NewGame returns a game with all piles empty. Call Deal before playing.
func NewGame(opts ...Option) *Game {
	g := &Game{
		cards: make(map[string]*Card, DeckSize),
		sink:  discardSink{},
	}
	g.stock = &Stock{pileBase{id: "stock", kind: StockPile, game: g}}
	g.waste = &Waste{pileBase{id: "waste", kind: WastePile, game: g}}
	for i := range g.foundations {
		g.foundations[i] = &Foundation{
			pileBase: pileBase{id: foundationID(i), kind: FoundationPile, game: g},
			index:    i,
		}
	}
	for i := range g.tableaux {
		g.tableaux[i] = &Tableau{id: tableauID(i), index: i, game: g}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Deal checks that records describe one full deck and lays it out. The
// first 28 records go to the columns, taken from the end, column by column
// with 0..6 face-down cards under one face-up card. The other 24 form the
// stock with the last record on top.
func (g *Game) Deal(records []CardRecord) error {
	if g.dealt {
		return ErrAlreadyDealt
	}
	cards, err := buildDeck(records)
	if err != nil {
		return err
	}
	for _, c := range cards {
		g.cards[c.code] = c
	}

	toDeal := cards[:TableauDealCount]
	next := func() *Card {
		c := toDeal[len(toDeal)-1]
		toDeal = toDeal[:len(toDeal)-1]
		return c
	}
	for _, c := range cards[TableauDealCount:] {
		g.stock.push(c)
	}
	for i, t := range g.tableaux {
		for range i {
			t.pushInactive(next())
		}
		t.push(next())
	}
	g.dealt = true
	return nil
}

func buildDeck(records []CardRecord) ([]*Card, error) {
	if len(records) != DeckSize {
		return nil, fmt.Errorf("%w: got %d cards, want %d", ErrMalformedDeck, len(records), DeckSize)
	}
	type face struct {
		suit Suit
		rank Rank
	}
	codes := make(map[string]bool, DeckSize)
	faces := make(map[face]bool, DeckSize)
	cards := make([]*Card, 0, DeckSize)
	for _, rec := range records {
		c, err := NewCard(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDeck, err)
		}
		if codes[c.code] {
			return nil, fmt.Errorf("%w: duplicate code %s", ErrMalformedDeck, c.code)
		}
		f := face{c.suit, c.rank}
		if faces[f] {
			return nil, fmt.Errorf("%w: duplicate card %s", ErrMalformedDeck, c)
		}
		codes[c.code] = true
		faces[f] = true
		cards = append(cards, c)
	}
	return cards, nil
}

func (g *Game) Dealt() bool { return g.dealt }

// Over reports whether the game reached its winning state.
func (g *Game) Over() bool { return g.over }

// IsWon reports whether all four foundations are complete.
func (g *Game) IsWon() bool {
	for _, f := range g.foundations {
		if !f.completed {
			return false
		}
	}
	return true
}

func (g *Game) Stock() *Stock { return g.stock }
func (g *Game) Waste() *Waste { return g.waste }

func (g *Game) Foundations() []*Foundation { return append([]*Foundation(nil), g.foundations[:]...) }
func (g *Game) Tableaux() []*Tableau       { return append([]*Tableau(nil), g.tableaux[:]...) }

// Piles lists every pile in display order.
func (g *Game) Piles() []Pile {
	out := make([]Pile, 0, 2+FoundationCount+TableauCount)
	out = append(out, g.stock, g.waste)
	for _, f := range g.foundations {
		out = append(out, f)
	}
	for _, t := range g.tableaux {
		out = append(out, t)
	}
	return out
}

// Pile looks a pile up by ID.
func (g *Game) Pile(id string) (Pile, bool) {
	for _, p := range g.Piles() {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// Card looks a card up by code.
func (g *Game) Card(code string) (*Card, bool) {
	c, ok := g.cards[code]
	return c, ok
}

// Current returns the open transaction, if any.
func (g *Game) Current() *Transaction { return g.current }

func (g *Game) playable() error {
	if !g.dealt {
		return ErrNotDealt
	}
	if g.over {
		return ErrGameOver
	}
	return nil
}

// Begin picks up the card with the given code, along with every active
// card above it in a column.
func (g *Game) Begin(code string) (*Transaction, error) {
	if err := g.playable(); err != nil {
		return nil, err
	}
	if g.current != nil {
		return nil, ErrTransactionOpen
	}
	c, ok := g.cards[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, code)
	}
	if c.pile == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotMovable, c)
	}
	run, ok := c.pile.movable(c)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotMovable, c, c.pile.ID())
	}
	tx := &Transaction{game: g, source: c.pile, run: run}
	if t, ok := c.pile.(*Tableau); ok {
		g.suppressFlip = t
	}
	g.current = tx
	return tx, nil
}

// Drop resolves a drag: commit onto dest when it accepts the cards, abort
// otherwise. dest may be nil.
func (g *Game) Drop(tx *Transaction, dest Pile) bool {
	if tx.Accepts(dest) {
		tx.Commit(dest)
		return true
	}
	tx.Abort()
	return false
}

// AutoMove sends the card to the first pile that takes it. A waste card
// tries foundations then columns, a foundation card tries columns, and a
// column card tries foundations then columns when it is the exposed card,
// columns only when cards ride on it. It returns nil when nothing accepts.
func (g *Game) AutoMove(code string) (Pile, error) {
	tx, err := g.Begin(code)
	if err != nil {
		return nil, err
	}
	var order []Pile
	switch tx.source.Kind() {
	case WastePile:
		order = append(g.foundationPiles(), g.tableauPiles()...)
	case FoundationPile:
		order = g.tableauPiles()
	case TableauPile:
		if len(tx.run) == 1 {
			order = g.foundationPiles()
		}
		order = append(order, g.tableauPiles()...)
	}
	for _, p := range order {
		if tx.Accepts(p) {
			tx.Commit(p)
			return p, nil
		}
	}
	tx.release()
	return nil, nil
}

// DrawOutcome says what Draw did.
type DrawOutcome int

const (
	DrawNothing DrawOutcome = iota
	DrawCard
	DrawRecycle
)

func (o DrawOutcome) String() string {
	switch o {
	case DrawCard:
		return "draw"
	case DrawRecycle:
		return "recycle"
	default:
		return "nothing"
	}
}

// Draw turns the top stock card onto the waste. With an empty stock the
// waste is turned back over into the stock.
func (g *Game) Draw() (DrawOutcome, error) {
	if err := g.playable(); err != nil {
		return DrawNothing, err
	}
	if g.current != nil {
		return DrawNothing, ErrTransactionOpen
	}
	switch {
	case g.stock.Len() > 0:
		g.waste.push(g.stock.pop())
		return DrawCard, nil
	case g.waste.Len() > 0:
		for _, c := range g.waste.drain() {
			g.stock.push(c)
		}
		return DrawRecycle, nil
	default:
		return DrawNothing, nil
	}
}

func (g *Game) foundationPiles() []Pile {
	out := make([]Pile, 0, FoundationCount)
	for _, f := range g.foundations {
		out = append(out, f)
	}
	return out
}

func (g *Game) tableauPiles() []Pile {
	out := make([]Pile, 0, TableauCount)
	for _, t := range g.tableaux {
		out = append(out, t)
	}
	return out
}

func (g *Game) emit(in Instruction) { g.sink.Emit(in) }

func (g *Game) flipSuppressed(t *Tableau) bool { return g.suppressFlip == t }

func (g *Game) foundationPushed() {
	if g.over || !g.dealt || !g.IsWon() {
		return
	}
	g.over = true
	if g.onWin != nil {
		g.onWin()
	}
}

// Verify checks that every dealt card sits in exactly one pile, that each
// card points back at its pile, and that active indices run 0..n-1.
func (g *Game) Verify() error {
	seen := make(map[string]string, len(g.cards))
	check := func(p Pile, c *Card, faceUp bool) error {
		if prev, dup := seen[c.code]; dup {
			return fmt.Errorf("card %s in both %s and %s", c, prev, p.ID())
		}
		seen[c.code] = p.ID()
		if c.pile != p {
			return fmt.Errorf("card %s in %s points at %s", c, p.ID(), pileID(c.pile))
		}
		if c.faceUp != faceUp {
			return fmt.Errorf("card %s in %s has face up %t", c, p.ID(), c.faceUp)
		}
		return nil
	}
	for _, c := range g.stock.cards {
		if err := check(g.stock, c, false); err != nil {
			return err
		}
	}
	for _, c := range g.waste.cards {
		if err := check(g.waste, c, true); err != nil {
			return err
		}
	}
	for _, f := range g.foundations {
		for _, c := range f.cards {
			if err := check(f, c, true); err != nil {
				return err
			}
		}
	}
	for _, t := range g.tableaux {
		for _, c := range t.inactive {
			if err := check(t, c, false); err != nil {
				return err
			}
			if _, ok := c.ActiveIndex(); ok {
				return fmt.Errorf("face-down card %s in %s has an active index", c, t.id)
			}
		}
		for i, c := range t.active {
			if err := check(t, c, true); err != nil {
				return err
			}
			if c.activeIdx != i {
				return fmt.Errorf("card %s in %s has active index %d, want %d", c, t.id, c.activeIdx, i)
			}
		}
	}
	if len(seen) != len(g.cards) {
		return fmt.Errorf("%d of %d cards placed", len(seen), len(g.cards))
	}
	return nil
}

// String renders the board as a table for debug logs.
func (g *Game) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "stock\t%d\n", g.stock.Len())
	fmt.Fprintf(w, "waste\t%s\n", joinCards(g.waste.cards))
	for _, f := range g.foundations {
		fmt.Fprintf(w, "%s\t%s\n", f.id, joinCards(f.cards))
	}
	for _, t := range g.tableaux {
		fmt.Fprintf(w, "%s\t%s\t| %s\n", t.id, joinCards(t.inactive), joinCards(t.active))
	}
	_ = w.Flush()
	return b.String()
}

func joinCards(cards []*Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.code
	}
	return strings.Join(parts, ",")
}
