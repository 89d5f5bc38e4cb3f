package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/randomtoy/klondike-go/internal/domain"
	"github.com/randomtoy/klondike-go/internal/ports"
)

// DefaultDropOverlap is the share of a pile's area a dragged card must
// cover for the pile to count as the drop target.
const DefaultDropOverlap = 0.25

// Candidate is a pile the dragged card overlaps when released.
type Candidate struct {
	Pile    string
	Overlap float64
}

// MoveResult is the application-level outcome of one input.
type MoveResult struct {
	Board       Board
	Moved       bool
	Destination string
	Draw        domain.DrawOutcome
	Render      []domain.Instruction
	// JustWon is true only for the input that completed the last foundation.
	JustWon bool
}

// renderBuffer collects render instructions until the current input ends.
type renderBuffer struct {
	ins []domain.Instruction
}

func (b *renderBuffer) Emit(in domain.Instruction) { b.ins = append(b.ins, in) }

func (b *renderBuffer) drain() []domain.Instruction {
	out := b.ins
	b.ins = nil
	return out
}

type session struct {
	mu      sync.Mutex
	id      string
	game    *domain.Game
	render  *renderBuffer
	drag    *domain.Transaction
	justWon bool
	// retired is set once the session has been closed or replaced by a
	// restart. Callers that locked it late go back to the map.
	retired bool
}

// SolitaireService runs solitaire games, one per game ID.
type SolitaireService struct {
	deckSource ports.DeckSource
	logger     *slog.Logger
	overlap    float64
	newID      func() string

	mu    sync.Mutex
	games map[string]*session
}

func NewSolitaireService(ds ports.DeckSource, logger *slog.Logger, dropOverlap float64) *SolitaireService {
	if dropOverlap <= 0 || dropOverlap > 1 {
		dropOverlap = DefaultDropOverlap
	}
	return &SolitaireService{
		deckSource: ds,
		logger:     logger,
		overlap:    dropOverlap,
		newID:      uuid.NewString,
		games:      make(map[string]*session),
	}
}

// NewGame fetches a deck and deals it. Nothing is stored when either step
// fails, so a half-dealt board is never playable.
func (s *SolitaireService) NewGame(ctx context.Context) (MoveResult, error) {
	sess, err := s.deal(ctx, s.newID())
	if err != nil {
		return MoveResult{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.mu.Lock()
	s.games[sess.id] = sess
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "game dealt", "game_id", sess.id)
	return s.withSession(ctx, sess, "deal", "", func(*session) (MoveResult, error) {
		return MoveResult{}, nil
	})
}

// Restart replaces the game with a fresh deal under the same ID. The old
// game keeps running if the new deck cannot be dealt. A game closed while
// the deck was being fetched stays closed.
func (s *SolitaireService) Restart(ctx context.Context, id string) (MoveResult, error) {
	old, err := s.session(id)
	if err != nil {
		return MoveResult{}, err
	}
	sess, err := s.deal(ctx, id)
	if err != nil {
		return MoveResult{}, err
	}

	old.mu.Lock()
	defer old.mu.Unlock()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.mu.Lock()
	if s.games[id] != old || old.retired {
		s.mu.Unlock()
		return MoveResult{}, domain.ErrGameNotFound
	}
	s.games[id] = sess
	s.mu.Unlock()
	old.retired = true

	s.logger.InfoContext(ctx, "game restarted", "game_id", id)
	return s.withSession(ctx, sess, "restart", "", func(*session) (MoveResult, error) {
		return MoveResult{}, nil
	})
}

// Close forgets a game.
func (s *SolitaireService) Close(ctx context.Context, id string) error {
	sess, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer sess.mu.Unlock()
	s.mu.Lock()
	delete(s.games, id)
	s.mu.Unlock()
	sess.retired = true
	s.logger.InfoContext(ctx, "game closed", "game_id", id)
	return nil
}

func (s *SolitaireService) Board(id string) (Board, error) {
	sess, err := s.acquire(id)
	if err != nil {
		return Board{}, err
	}
	defer sess.mu.Unlock()
	return buildBoard(sess.id, sess.game), nil
}

// Draw turns a stock card, or recycles the waste when the stock is empty.
func (s *SolitaireService) Draw(ctx context.Context, id string) (MoveResult, error) {
	return s.play(ctx, id, "draw", "", func(sess *session) (MoveResult, error) {
		out, err := sess.game.Draw()
		if err != nil {
			return MoveResult{}, err
		}
		return MoveResult{Moved: out != domain.DrawNothing, Draw: out}, nil
	})
}

// AutoMove handles a click: the card goes to the first pile that takes it.
func (s *SolitaireService) AutoMove(ctx context.Context, id, code string) (MoveResult, error) {
	return s.play(ctx, id, "auto", code, func(sess *session) (MoveResult, error) {
		dest, err := sess.game.AutoMove(code)
		if err != nil {
			return MoveResult{}, err
		}
		if dest == nil {
			return MoveResult{}, nil
		}
		return MoveResult{Moved: true, Destination: dest.ID()}, nil
	})
}

// DragStart picks up a card and whatever rides on it.
func (s *SolitaireService) DragStart(ctx context.Context, id, code string) (MoveResult, error) {
	return s.play(ctx, id, "drag_start", code, func(sess *session) (MoveResult, error) {
		tx, err := sess.game.Begin(code)
		if err != nil {
			return MoveResult{}, err
		}
		sess.drag = tx
		return MoveResult{}, nil
	})
}

// DragMove records pointer movement. The board is not touched.
func (s *SolitaireService) DragMove(id, code string, dx, dy float64) (x, y float64, err error) {
	sess, err := s.acquire(id)
	if err != nil {
		return 0, 0, err
	}
	defer sess.mu.Unlock()
	tx, err := sess.dragging(code)
	if err != nil {
		return 0, 0, err
	}
	tx.Move(dx, dy)
	x, y = tx.Offset()
	return x, y, nil
}

// DragEnd drops the picked-up cards. The pile with the largest overlap at
// or above the threshold is the target; the move commits if that pile
// takes the cards and aborts otherwise.
func (s *SolitaireService) DragEnd(ctx context.Context, id, code string, candidates []Candidate) (MoveResult, error) {
	return s.play(ctx, id, "drag_end", code, func(sess *session) (MoveResult, error) {
		tx, err := sess.dragging(code)
		if err != nil {
			return MoveResult{}, err
		}
		sess.drag = nil
		dest := pickDropTarget(sess.game, candidates, s.overlap)
		if !sess.game.Drop(tx, dest) {
			return MoveResult{}, nil
		}
		return MoveResult{Moved: true, Destination: dest.ID()}, nil
	})
}

// CancelDrag aborts the open drag. With a card code only a drag of that
// card is aborted and any other drag is reported as ErrNoTransaction. With
// an empty code whatever drag is open is aborted, and none is fine.
func (s *SolitaireService) CancelDrag(ctx context.Context, id, code string) (MoveResult, error) {
	return s.play(ctx, id, "drag_cancel", code, func(sess *session) (MoveResult, error) {
		if code != "" {
			if _, err := sess.dragging(code); err != nil {
				return MoveResult{}, err
			}
		}
		if sess.drag != nil {
			sess.drag.Abort()
			sess.drag = nil
		}
		return MoveResult{}, nil
	})
}

func (s *SolitaireService) deal(ctx context.Context, id string) (*session, error) {
	records, err := s.deckSource.Draw(ctx)
	if err != nil {
		return nil, fmt.Errorf("draw deck: %w", err)
	}
	sess := &session{id: id, render: &renderBuffer{}}
	sess.game = domain.NewGame(
		domain.WithSink(sess.render),
		domain.WithWinHandler(func() { sess.justWon = true }),
	)
	if err := sess.game.Deal(records); err != nil {
		return nil, fmt.Errorf("deal: %w", err)
	}
	return sess, nil
}

func (s *SolitaireService) session(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return sess, nil
}

// acquire returns the live session for id with its lock held.
func (s *SolitaireService) acquire(id string) (*session, error) {
	for {
		sess, err := s.session(id)
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		if !sess.retired {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

func (s *SolitaireService) play(ctx context.Context, id, op, code string, fn func(*session) (MoveResult, error)) (MoveResult, error) {
	sess, err := s.acquire(id)
	if err != nil {
		return MoveResult{}, err
	}
	defer sess.mu.Unlock()
	return s.withSession(ctx, sess, op, code, fn)
}

// withSession runs fn on a locked session and builds the result.
func (s *SolitaireService) withSession(ctx context.Context, sess *session, op, code string, fn func(*session) (MoveResult, error)) (MoveResult, error) {

	res, err := fn(sess)
	render := sess.render.drain()
	if err != nil {
		return MoveResult{}, err
	}
	res.Render = render
	res.Board = buildBoard(sess.id, sess.game)
	if sess.justWon {
		res.JustWon = true
		sess.justWon = false
		s.logger.InfoContext(ctx, "game won", "game_id", sess.id)
	}

	s.logger.DebugContext(ctx, "input handled",
		"game_id", sess.id,
		"op", op,
		"card", code,
		"moved", res.Moved,
		"destination", res.Destination,
		"instructions", len(render),
	)
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		if err := sess.game.Verify(); err != nil {
			s.logger.ErrorContext(ctx, "board invariant broken", "game_id", sess.id, "error", err)
		}
		s.logger.DebugContext(ctx, "board", "game_id", sess.id, "layout", sess.game.String())
	}
	return res, nil
}

func (sess *session) dragging(code string) (*domain.Transaction, error) {
	if sess.drag == nil || sess.drag.Card().Code() != code {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoTransaction, code)
	}
	return sess.drag, nil
}

func pickDropTarget(g *domain.Game, candidates []Candidate, threshold float64) domain.Pile {
	var (
		best        domain.Pile
		bestOverlap float64
	)
	for _, c := range candidates {
		if c.Overlap < threshold || c.Overlap <= bestOverlap {
			continue
		}
		p, ok := g.Pile(c.Pile)
		if !ok {
			continue
		}
		best, bestOverlap = p, c.Overlap
	}
	return best
}
