package domain

import "fmt"

// Transaction is one pick-up of a card, with any cards stacked on it, that
// ends in exactly one Commit or Abort. Nothing moves until it resolves.
type Transaction struct {
	game   *Game
	source Pile
	run    []*Card
	dx, dy float64
	done   bool
}

// Card returns the picked-up card.
func (tx *Transaction) Card() *Card { return tx.run[0] }

func (tx *Transaction) Source() Pile { return tx.source }

// Cards returns the picked-up card followed by its trailing cards.
func (tx *Transaction) Cards() []*Card { return append([]*Card(nil), tx.run...) }

// Trailing returns the cards riding on top of the picked-up card.
func (tx *Transaction) Trailing() []*Card { return append([]*Card(nil), tx.run[1:]...) }

func (tx *Transaction) Resolved() bool { return tx.done }

// Move accumulates the pointer offset for drag feedback.
func (tx *Transaction) Move(dx, dy float64) {
	tx.dx += dx
	tx.dy += dy
}

func (tx *Transaction) Offset() (dx, dy float64) { return tx.dx, tx.dy }

// Accepts reports whether dest would take the picked-up cards.
func (tx *Transaction) Accepts(dest Pile) bool {
	if dest == nil || dest == tx.source {
		return false
	}
	switch d := dest.(type) {
	case *Foundation:
		return len(tx.run) == 1 && CanAcceptAtFoundation(tx.run[0], d)
	case *Tableau:
		return CanAcceptAtTableau(tx.run[0], d)
	default:
		return false
	}
}

// Commit moves the cards to dest. dest must satisfy Accepts.
func (tx *Transaction) Commit(dest Pile) {
	tx.mustBeOpen("commit")
	if !tx.Accepts(dest) {
		panic(fmt.Sprintf("domain: commit of %s from %s to %s not accepted", tx.Card(), tx.source.ID(), pileID(dest)))
	}
	tx.finish()
	put(dest, take(tx.source, tx.Card()))
}

// Abort puts the cards back where they were without flipping anything in
// the source column.
func (tx *Transaction) Abort() {
	tx.mustBeOpen("abort")
	put(tx.source, take(tx.source, tx.Card()))
	tx.finish()
}

// release closes the transaction without touching any pile.
func (tx *Transaction) release() {
	tx.mustBeOpen("release")
	tx.finish()
}

func (tx *Transaction) mustBeOpen(op string) {
	if tx.done {
		panic(fmt.Sprintf("domain: %s on resolved transaction for %s", op, tx.Card()))
	}
}

func (tx *Transaction) finish() {
	tx.done = true
	if tx.game.current == tx {
		tx.game.current = nil
	}
	tx.game.suppressFlip = nil
}

func take(p Pile, c *Card) []*Card {
	switch src := p.(type) {
	case *Waste:
		return []*Card{src.pop()}
	case *Foundation:
		return []*Card{src.pop()}
	case *Tableau:
		idx, _ := c.ActiveIndex()
		if idx == len(src.active)-1 {
			return []*Card{src.pop()}
		}
		return src.splice(idx)
	default:
		panic("domain: cards cannot leave " + pileID(p))
	}
}

func put(p Pile, run []*Card) {
	switch dst := p.(type) {
	case *Waste:
		for _, c := range run {
			dst.push(c)
		}
	case *Foundation:
		for _, c := range run {
			dst.push(c)
		}
	case *Tableau:
		dst.push(run...)
	default:
		panic("domain: cards cannot land on " + pileID(p))
	}
}

func pileID(p Pile) string {
	if p == nil {
		return "<nil>"
	}
	return p.ID()
}
