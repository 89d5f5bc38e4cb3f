package domain

import "strconv"

// PileKind distinguishes the four pile variants.
type PileKind int

const (
	StockPile PileKind = iota
	WastePile
	FoundationPile
	TableauPile
)

func (k PileKind) String() string {
	switch k {
	case StockPile:
		return "stock"
	case WastePile:
		return "waste"
	case FoundationPile:
		return "foundation"
	case TableauPile:
		return "tableau"
	default:
		return "unknown"
	}
}

const (
	// PeekWindow is how many cards a waste or foundation shows.
	PeekWindow = 2
	// FanStep is the vertical offset between stacked tableau cards.
	FanStep = 25
)

// Pile is an ordered container of cards. Cards are listed bottom to top.
type Pile interface {
	ID() string
	Kind() PileKind
	Len() int
	Cards() []*Card
	Top() *Card

	// movable returns the run that would leave the pile if c were picked up.
	movable(c *Card) ([]*Card, bool)
}

type pileBase struct {
	id    string
	kind  PileKind
	game  *Game
	cards []*Card
}

func (p *pileBase) ID() string     { return p.id }
func (p *pileBase) Kind() PileKind { return p.kind }
func (p *pileBase) Len() int       { return len(p.cards) }

func (p *pileBase) Cards() []*Card {
	return append([]*Card(nil), p.cards...)
}

func (p *pileBase) Top() *Card {
	if len(p.cards) == 0 {
		return nil
	}
	return p.cards[len(p.cards)-1]
}

// Visible returns the cards inside the peek window, bottom to top.
func (p *pileBase) Visible() []*Card {
	from := max(0, len(p.cards)-PeekWindow)
	return append([]*Card(nil), p.cards[from:]...)
}

func (p *pileBase) topOnly(c *Card) ([]*Card, bool) {
	if c == nil || c != p.Top() {
		return nil, false
	}
	return []*Card{c}, true
}

// pushShown appends a face-up card, dropping the oldest shown visual when
// the window is full.
func (p *pileBase) pushShown(self Pile, c *Card) {
	if len(p.cards) >= PeekWindow {
		hidden := p.cards[len(p.cards)-PeekWindow]
		p.game.emit(Instruction{Op: OpRemove, Card: hidden.code, Pile: p.id})
	}
	p.cards = append(p.cards, c)
	c.place(self, true)
	p.game.emit(Instruction{Op: OpPlace, Card: c.code, Pile: p.id, FaceUp: true})
}

// popShown removes the top card and re-exposes the card that slides into
// the window underneath.
func (p *pileBase) popShown() *Card {
	c := p.Top()
	if c == nil {
		return nil
	}
	p.cards = p.cards[:len(p.cards)-1]
	c.unplace()
	p.game.emit(Instruction{Op: OpRemove, Card: c.code, Pile: p.id})
	if len(p.cards) >= PeekWindow {
		under := p.cards[len(p.cards)-PeekWindow]
		p.game.emit(Instruction{Op: OpPlace, Card: under.code, Pile: p.id, FaceUp: true, Under: true})
	}
	return c
}

// Stock is the face-down draw pile.
type Stock struct{ pileBase }

func (s *Stock) movable(*Card) ([]*Card, bool) { return nil, false }

func (s *Stock) push(c *Card) {
	s.cards = append(s.cards, c)
	c.place(s, false)
}

func (s *Stock) pop() *Card {
	c := s.Top()
	if c == nil {
		return nil
	}
	s.cards = s.cards[:len(s.cards)-1]
	c.unplace()
	return c
}

// Waste holds drawn cards face-up.
type Waste struct{ pileBase }

func (w *Waste) movable(c *Card) ([]*Card, bool) { return w.topOnly(c) }

func (w *Waste) push(c *Card) { w.pushShown(w, c) }

func (w *Waste) pop() *Card { return w.popShown() }

// drain empties the waste top first, clearing its shown cards.
func (w *Waste) drain() []*Card {
	for _, c := range w.Visible() {
		w.game.emit(Instruction{Op: OpRemove, Card: c.code, Pile: w.id})
	}
	out := make([]*Card, 0, len(w.cards))
	for i := len(w.cards) - 1; i >= 0; i-- {
		c := w.cards[i]
		c.unplace()
		out = append(out, c)
	}
	w.cards = nil
	return out
}

// Foundation is built up in one suit from ace to king.
type Foundation struct {
	pileBase
	index     int
	suit      Suit
	completed bool
}

func (f *Foundation) Index() int { return f.index }

// Suit returns the bound suit; ok is false while the pile is empty.
func (f *Foundation) Suit() (Suit, bool) { return f.suit, f.suit != "" }

// Completed reports whether a king was placed and not popped since.
func (f *Foundation) Completed() bool { return f.completed }

func (f *Foundation) movable(c *Card) ([]*Card, bool) { return f.topOnly(c) }

func (f *Foundation) push(c *Card) {
	if len(f.cards) == 0 {
		f.suit = c.suit
	}
	f.pushShown(f, c)
	if c.rank == King {
		f.completed = true
	}
	f.game.foundationPushed()
}

func (f *Foundation) pop() *Card {
	c := f.popShown()
	if c == nil {
		return nil
	}
	f.completed = false
	if len(f.cards) == 0 {
		f.suit = ""
	}
	return c
}

// Tableau is one of the seven playing columns: a face-down inactive layer
// under a face-up active layer.
type Tableau struct {
	id       string
	index    int
	game     *Game
	inactive []*Card
	active   []*Card
}

func (t *Tableau) ID() string     { return t.id }
func (t *Tableau) Kind() PileKind { return TableauPile }
func (t *Tableau) Index() int     { return t.index }
func (t *Tableau) Len() int       { return len(t.inactive) + len(t.active) }

func (t *Tableau) Cards() []*Card {
	out := make([]*Card, 0, t.Len())
	out = append(out, t.inactive...)
	return append(out, t.active...)
}

func (t *Tableau) Inactive() []*Card { return append([]*Card(nil), t.inactive...) }
func (t *Tableau) Active() []*Card   { return append([]*Card(nil), t.active...) }

func (t *Tableau) Top() *Card {
	if c := t.TopActive(); c != nil {
		return c
	}
	if len(t.inactive) == 0 {
		return nil
	}
	return t.inactive[len(t.inactive)-1]
}

// TopActive returns the exposed face-up card, nil if there is none.
func (t *Tableau) TopActive() *Card {
	if len(t.active) == 0 {
		return nil
	}
	return t.active[len(t.active)-1]
}

func (t *Tableau) movable(c *Card) ([]*Card, bool) {
	if c == nil || c.pile != t {
		return nil, false
	}
	idx, ok := c.ActiveIndex()
	if !ok || idx >= len(t.active) || t.active[idx] != c {
		return nil, false
	}
	return append([]*Card(nil), t.active[idx:]...), true
}

func (t *Tableau) pushInactive(c *Card) {
	t.inactive = append(t.inactive, c)
	c.place(t, false)
	t.game.emit(Instruction{Op: OpPlace, Card: c.code, Pile: t.id})
	t.reindex()
}

func (t *Tableau) popInactive() *Card {
	if len(t.inactive) == 0 {
		return nil
	}
	c := t.inactive[len(t.inactive)-1]
	t.inactive = t.inactive[:len(t.inactive)-1]
	c.unplace()
	t.game.emit(Instruction{Op: OpRemove, Card: c.code, Pile: t.id})
	t.reindex()
	return c
}

func (t *Tableau) push(cards ...*Card) {
	for _, c := range cards {
		t.active = append(t.active, c)
		c.place(t, true)
		t.game.emit(Instruction{Op: OpPlace, Card: c.code, Pile: t.id, FaceUp: true})
	}
	t.settle()
}

func (t *Tableau) pop() *Card {
	if len(t.active) == 0 {
		return nil
	}
	c := t.active[len(t.active)-1]
	t.active = t.active[:len(t.active)-1]
	c.unplace()
	t.game.emit(Instruction{Op: OpRemove, Card: c.code, Pile: t.id})
	t.settle()
	return c
}

// splice removes the active cards from position from to the top.
func (t *Tableau) splice(from int) []*Card {
	if from < 0 || from >= len(t.active) {
		return nil
	}
	run := append([]*Card(nil), t.active[from:]...)
	t.active = t.active[:from]
	for _, c := range run {
		c.unplace()
		t.game.emit(Instruction{Op: OpRemove, Card: c.code, Pile: t.id})
	}
	t.settle()
	return run
}

// settle runs after every active-layer change: flip the next face-down
// card if the active layer emptied, then re-index.
func (t *Tableau) settle() {
	if len(t.active) == 0 && len(t.inactive) > 0 && !t.game.flipSuppressed(t) {
		c := t.popInactive()
		t.active = append(t.active, c)
		c.place(t, true)
		t.game.emit(Instruction{Op: OpPlace, Card: c.code, Pile: t.id, FaceUp: true})
	}
	t.reindex()
}

func (t *Tableau) reindex() {
	for i, c := range t.inactive {
		c.activeIdx = -1
		t.restyle(c, i)
	}
	base := len(t.inactive)
	for i, c := range t.active {
		c.activeIdx = i
		t.restyle(c, base+i)
	}
}

func (t *Tableau) restyle(c *Card, pos int) {
	c.offset = pos * FanStep
	c.z = pos + 1
	t.game.emit(Instruction{Op: OpRestyle, Card: c.code, Pile: t.id, FaceUp: c.faceUp, Offset: c.offset, Z: c.z})
}

func foundationID(i int) string { return "foundation-" + strconv.Itoa(i) }
func tableauID(i int) string    { return "tableau-" + strconv.Itoa(i) }
