package domain

// CanAcceptAtFoundation reports whether c may be placed on f: an ace on an
// empty pile, otherwise the next rank of the pile's suit.
func CanAcceptAtFoundation(c *Card, f *Foundation) bool {
	top := f.Top()
	if top == nil {
		return c.rank == Ace
	}
	return c.suit == f.suit && c.rank == top.rank+1
}

// CanAcceptAtTableau reports whether c may be placed on t: a king on an
// empty column, otherwise one rank below the exposed card in the other
// color. Everything is accepted while the deal is still running.
func CanAcceptAtTableau(c *Card, t *Tableau) bool {
	if !t.game.dealt {
		return true
	}
	if t.Len() == 0 {
		return c.rank == King
	}
	top := t.TopActive()
	if top == nil {
		return false
	}
	return c.Color() != top.Color() && c.rank == top.rank-1
}
