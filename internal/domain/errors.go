package domain

import "errors"

var (
	ErrUnknownSuit     = errors.New("unknown suit")
	ErrUnknownRank     = errors.New("unknown rank label")
	ErrMalformedDeck   = errors.New("malformed deck")
	ErrDeckFetch       = errors.New("deck fetch failure")
	ErrAlreadyDealt    = errors.New("game already dealt")
	ErrNotDealt        = errors.New("game not dealt yet")
	ErrGameOver        = errors.New("game is over")
	ErrGameNotFound    = errors.New("game not found")
	ErrUnknownCard     = errors.New("unknown card")
	ErrNotMovable      = errors.New("card cannot be moved")
	ErrTransactionOpen = errors.New("another move is in progress")
	ErrNoTransaction   = errors.New("no move in progress for card")
)
