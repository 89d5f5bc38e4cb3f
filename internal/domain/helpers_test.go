package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testSuits  = []string{"CLUBS", "DIAMONDS", "HEARTS", "SPADES"}
	testValues = []string{"ACE", "2", "3", "4", "5", "6", "7", "8", "9", "10", "JACK", "QUEEN", "KING"}
)

// codeFor mirrors deckofcardsapi codes: "AS", "0H" for the ten of hearts.
func codeFor(value, suit string) string {
	v := value[:1]
	if value == "10" {
		v = "0"
	}
	return v + suit[:1]
}

// standardRecords returns a full deck ordered clubs, diamonds, hearts,
// spades, each ace to king.
func standardRecords() []CardRecord {
	out := make([]CardRecord, 0, DeckSize)
	for _, s := range testSuits {
		for _, v := range testValues {
			code := codeFor(v, s)
			out = append(out, CardRecord{
				Code:  code,
				Suit:  s,
				Value: v,
				Image: "https://img.test/" + code + ".png",
				Back:  "https://img.test/back.png",
			})
		}
	}
	return out
}

func dealtGame(t *testing.T, opts ...Option) *Game {
	t.Helper()
	g := NewGame(opts...)
	require.NoError(t, g.Deal(standardRecords()))
	return g
}

// layout describes a board; cards it does not mention end up in the stock.
type layout struct {
	waste       []string
	foundations [FoundationCount][]string
	inactive    [TableauCount][]string
	active      [TableauCount][]string
}

// stage deals a standard game and then rearranges it to match l.
func stage(t *testing.T, l layout, opts ...Option) *Game {
	t.Helper()
	g := dealtGame(t, opts...)

	g.stock.cards = nil
	g.waste.cards = nil
	for _, f := range g.foundations {
		f.cards, f.suit, f.completed = nil, "", false
	}
	for _, tb := range g.tableaux {
		tb.inactive, tb.active = nil, nil
	}

	used := make(map[string]bool)
	card := func(code string) *Card {
		c, ok := g.cards[code]
		require.Truef(t, ok, "unknown card %s", code)
		require.Falsef(t, used[code], "card %s staged twice", code)
		used[code] = true
		return c
	}

	for _, code := range l.waste {
		c := card(code)
		g.waste.cards = append(g.waste.cards, c)
		c.place(g.waste, true)
	}
	for i, codes := range l.foundations {
		f := g.foundations[i]
		for _, code := range codes {
			c := card(code)
			f.cards = append(f.cards, c)
			c.place(f, true)
			f.suit = c.suit
			f.completed = c.rank == King
		}
	}
	for i, tb := range g.tableaux {
		for _, code := range l.inactive[i] {
			c := card(code)
			tb.inactive = append(tb.inactive, c)
			c.place(tb, false)
		}
		for _, code := range l.active[i] {
			c := card(code)
			tb.active = append(tb.active, c)
			c.place(tb, true)
		}
		tb.reindex()
	}
	for _, rec := range standardRecords() {
		if !used[rec.Code] {
			c := g.cards[rec.Code]
			g.stock.cards = append(g.stock.cards, c)
			c.place(g.stock, false)
		}
	}
	require.NoError(t, g.Verify())
	return g
}

type recorder struct {
	ins []Instruction
}

func (r *recorder) Emit(in Instruction) { r.ins = append(r.ins, in) }

func (r *recorder) reset() { r.ins = nil }

func (r *recorder) count(op Op, code string) int {
	n := 0
	for _, in := range r.ins {
		if in.Op == op && in.Card == code {
			n++
		}
	}
	return n
}

func codes(cards []*Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Code()
	}
	return out
}
