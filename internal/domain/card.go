package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the four French suits.
type Suit string

const (
	Clubs    Suit = "clubs"
	Diamonds Suit = "diamonds"
	Hearts   Suit = "hearts"
	Spades   Suit = "spades"
)

// Suits lists the suits in deck order.
var Suits = [...]Suit{Clubs, Diamonds, Hearts, Spades}

// ParseSuit accepts suit names in any letter case ("HEARTS", "hearts").
func ParseSuit(s string) (Suit, error) {
	switch suit := Suit(strings.ToLower(strings.TrimSpace(s))); suit {
	case Clubs, Diamonds, Hearts, Spades:
		return suit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSuit, s)
	}
}

// Color is derived from the suit.
type Color string

const (
	Red   Color = "red"
	Black Color = "black"
)

func (s Suit) Color() Color {
	if s == Diamonds || s == Hearts {
		return Red
	}
	return Black
}

// Rank is the card value, ace low.
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

var faceRanks = map[string]Rank{
	"ACE":   Ace,
	"JACK":  Jack,
	"QUEEN": Queen,
	"KING":  King,
}

// ParseRank maps a deck label (ACE, 2..10, JACK, QUEEN, KING) to a Rank.
// Anything else is rejected rather than defaulted.
func ParseRank(label string) (Rank, error) {
	l := strings.ToUpper(strings.TrimSpace(label))
	if r, ok := faceRanks[l]; ok {
		return r, nil
	}
	n, err := strconv.Atoi(l)
	if err != nil || n < 2 || n > 10 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRank, label)
	}
	return Rank(n), nil
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		if r >= 2 && r <= 10 {
			return strconv.Itoa(int(r))
		}
		return "?"
	}
}

// CardRecord is a card as delivered by a deck source.
type CardRecord struct {
	Code  string `json:"code"`
	Suit  string `json:"suit"`
	Value string `json:"value"`
	Image string `json:"image"`
	Back  string `json:"back,omitempty"`
}

// Card is one playing card. Identity, suit and rank never change; the
// placement fields are written only by the pile that holds the card.
type Card struct {
	code  string
	suit  Suit
	rank  Rank
	front string
	back  string

	pile      Pile
	faceUp    bool
	activeIdx int
	offset    int
	z         int
}

// NewCard builds a card from a deck record.
func NewCard(rec CardRecord) (*Card, error) {
	if strings.TrimSpace(rec.Code) == "" {
		return nil, fmt.Errorf("%w: card without code", ErrMalformedDeck)
	}
	suit, err := ParseSuit(rec.Suit)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", rec.Code, err)
	}
	rank, err := ParseRank(rec.Value)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", rec.Code, err)
	}
	return &Card{
		code:      rec.Code,
		suit:      suit,
		rank:      rank,
		front:     rec.Image,
		back:      rec.Back,
		activeIdx: -1,
	}, nil
}

func (c *Card) Code() string  { return c.code }
func (c *Card) Suit() Suit    { return c.suit }
func (c *Card) Color() Color  { return c.suit.Color() }
func (c *Card) Rank() Rank    { return c.rank }
func (c *Card) Front() string { return c.front }
func (c *Card) Back() string  { return c.back }

// Pile returns the pile currently holding the card, nil before the deal.
func (c *Card) Pile() Pile { return c.pile }

func (c *Card) FaceUp() bool { return c.faceUp }

// ActiveIndex is the 0-based position in a tableau's active layer,
// counted from the bottom. ok is false outside an active layer.
func (c *Card) ActiveIndex() (idx int, ok bool) {
	return c.activeIdx, c.activeIdx >= 0
}

// Offset and Z are the fan-out layout values inside a tableau.
func (c *Card) Offset() int { return c.offset }
func (c *Card) Z() int      { return c.z }

func (c *Card) String() string {
	return c.rank.String() + strings.ToUpper(string(c.suit[:1]))
}

func (c *Card) place(p Pile, faceUp bool) {
	c.pile = p
	c.faceUp = faceUp
	c.activeIdx = -1
	c.offset = 0
	c.z = 0
}

func (c *Card) unplace() {
	c.pile = nil
	c.activeIdx = -1
}
