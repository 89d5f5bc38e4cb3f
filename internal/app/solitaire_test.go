package app_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/randomtoy/klondike-go/internal/app"
	"github.com/randomtoy/klondike-go/internal/domain"
)

type mockDeckSource struct {
	records []domain.CardRecord
	err     error
}

func (m *mockDeckSource) Draw(_ context.Context) ([]domain.CardRecord, error) {
	return m.records, m.err
}

var (
	suits  = []string{"CLUBS", "DIAMONDS", "HEARTS", "SPADES"}
	values = []string{"ACE", "2", "3", "4", "5", "6", "7", "8", "9", "10", "JACK", "QUEEN", "KING"}
)

// testDeck returns clubs, diamonds, hearts, spades, each ace to king. Dealt
// as is, the exposed column cards are 2H KD 0D 6D AD 8C AC and the stock
// turns up KS first.
func testDeck() []domain.CardRecord {
	out := make([]domain.CardRecord, 0, domain.DeckSize)
	for _, s := range suits {
		for _, v := range values {
			code := v[:1] + s[:1]
			if v == "10" {
				code = "0" + s[:1]
			}
			out = append(out, domain.CardRecord{Code: code, Suit: s, Value: v, Image: code + ".png", Back: "back.png"})
		}
	}
	return out
}

// winnableDeck orders the deck so the stock turns up every ace to six in
// rank order and each column, read from the exposed card down, continues
// one suit upwards.
func winnableDeck() []domain.CardRecord {
	byCode := make(map[string]domain.CardRecord)
	for _, r := range testDeck() {
		byCode[r.Code] = r
	}
	columns := []string{
		"7C", "8C", "9C", "0C", "JC", "QC", "KC",
		"7D", "8D", "9D", "0D", "JD", "QD",
		"7H", "8H", "9H", "0H", "JH",
		"7S", "8S", "9S", "0S",
		"JS", "QS", "KS",
		"QH", "KH",
		"KD",
	}
	var drawn []string
	for _, v := range values[:6] {
		for _, s := range suits {
			code := v[:1] + s[:1]
			drawn = append(drawn, code)
		}
	}
	out := make([]domain.CardRecord, 0, domain.DeckSize)
	for _, c := range columns {
		out = append(out, byCode[c])
	}
	for i := len(drawn) - 1; i >= 0; i-- {
		out = append(out, byCode[drawn[i]])
	}
	return out
}

func newService(records []domain.CardRecord) *app.SolitaireService {
	return app.NewSolitaireService(&mockDeckSource{records: records}, slog.Default(), 0.25)
}

func pile(b app.Board, id string) app.PileView {
	for _, p := range b.Piles {
		if p.ID == id {
			return p
		}
	}
	return app.PileView{}
}

func top(p app.PileView) app.CardView {
	if len(p.Cards) == 0 {
		return app.CardView{}
	}
	return p.Cards[len(p.Cards)-1]
}

func TestNewGame_Success(t *testing.T) {
	svc := newService(testDeck())

	res, err := svc.NewGame(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(res.Board.GameID); err != nil {
		t.Errorf("game ID is not a UUID: %q", res.Board.GameID)
	}
	if !res.Board.Ready {
		t.Error("expected a dealt board")
	}
	if len(res.Board.Piles) != 13 {
		t.Fatalf("expected 13 piles, got %d", len(res.Board.Piles))
	}
	if got := pile(res.Board, "stock").Count; got != 24 {
		t.Errorf("expected 24 stock cards, got %d", got)
	}
	if got := top(pile(res.Board, "tableau-6")); got.Code != "AC" || !got.FaceUp {
		t.Errorf("unexpected tableau-6 top: %+v", got)
	}
	if first := pile(res.Board, "tableau-6").Cards[0]; first.FaceUp || first.Image != "back.png" ||
		first.Code != "" || first.Suit != "" || first.Rank != 0 || first.Color != "" {
		t.Errorf("face-down card shows its face: %+v", first)
	}
	if len(res.Render) == 0 {
		t.Error("expected render instructions for the deal")
	}
}

func TestNewGame_DeckFetchFailure(t *testing.T) {
	svc := app.NewSolitaireService(&mockDeckSource{err: domain.ErrDeckFetch}, slog.Default(), 0.25)

	_, err := svc.NewGame(context.Background())
	if !errors.Is(err, domain.ErrDeckFetch) {
		t.Fatalf("expected ErrDeckFetch, got %v", err)
	}
}

func TestNewGame_MalformedDeck(t *testing.T) {
	svc := newService(testDeck()[:51])

	_, err := svc.NewGame(context.Background())
	if !errors.Is(err, domain.ErrMalformedDeck) {
		t.Fatalf("expected ErrMalformedDeck, got %v", err)
	}
}

func TestUnknownGame(t *testing.T) {
	svc := newService(testDeck())

	if _, err := svc.Board("nope"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("Board: expected ErrGameNotFound, got %v", err)
	}
	if _, err := svc.Draw(context.Background(), "nope"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("Draw: expected ErrGameNotFound, got %v", err)
	}
	if err := svc.Close(context.Background(), "nope"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("Close: expected ErrGameNotFound, got %v", err)
	}
}

func TestDraw(t *testing.T) {
	svc := newService(testDeck())
	res, _ := svc.NewGame(context.Background())
	id := res.Board.GameID

	res, err := svc.Draw(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Moved || res.Draw != domain.DrawCard {
		t.Errorf("expected a card to be drawn, got %+v", res)
	}
	if got := top(pile(res.Board, "waste")); got.Code != "KS" {
		t.Errorf("expected KS on the waste, got %q", got.Code)
	}
}

func TestAutoMove(t *testing.T) {
	svc := newService(testDeck())
	res, _ := svc.NewGame(context.Background())
	id := res.Board.GameID

	res, err := svc.AutoMove(context.Background(), id, "AC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Moved || res.Destination != "foundation-0" {
		t.Fatalf("expected AC on foundation-0, got %+v", res)
	}
	if got := top(pile(res.Board, "tableau-6")); got.Code != "2C" || !got.FaceUp {
		t.Errorf("expected 2C to be flipped, got %+v", got)
	}

	res, err = svc.AutoMove(context.Background(), id, "KD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Moved {
		t.Errorf("KD has nowhere to go, got %+v", res)
	}

	if _, err := svc.AutoMove(context.Background(), id, "KS"); !errors.Is(err, domain.ErrNotMovable) {
		t.Errorf("expected ErrNotMovable for a stock card, got %v", err)
	}
}

func TestDrag_BelowThresholdAborts(t *testing.T) {
	svc := newService(testDeck())
	res, _ := svc.NewGame(context.Background())
	id := res.Board.GameID

	res, err := svc.DragStart(context.Background(), id, "AC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Board.Dragging != "AC" {
		t.Errorf("expected AC to be dragging, got %q", res.Board.Dragging)
	}

	x, y, err := svc.DragMove(id, "AC", 12, 30)
	if err != nil || x != 12 || y != 30 {
		t.Fatalf("unexpected drag move: %v %v %v", x, y, err)
	}

	res, err = svc.DragEnd(context.Background(), id, "AC", []app.Candidate{{Pile: "foundation-0", Overlap: 0.2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Moved {
		t.Fatalf("expected abort below threshold, got %+v", res)
	}
	tab := pile(res.Board, "tableau-6")
	if tab.Count != 7 || top(tab).Code != "AC" {
		t.Errorf("tableau-6 changed after abort: %+v", tab)
	}
	if res.Board.Dragging != "" {
		t.Errorf("drag still open: %q", res.Board.Dragging)
	}
}

func TestDrag_LargestOverlapWins(t *testing.T) {
	svc := newService(testDeck())
	res, _ := svc.NewGame(context.Background())
	id := res.Board.GameID

	if _, err := svc.DragStart(context.Background(), id, "AD"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := svc.DragEnd(context.Background(), id, "AD", []app.Candidate{
		{Pile: "tableau-3", Overlap: 0.3},
		{Pile: "foundation-2", Overlap: 0.6},
		{Pile: "no-such-pile", Overlap: 0.9},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Moved || res.Destination != "foundation-2" {
		t.Fatalf("expected AD on foundation-2, got %+v", res)
	}
	if got := top(pile(res.Board, "tableau-4")); got.Code != "2D" || !got.FaceUp {
		t.Errorf("expected 2D to be flipped, got %+v", got)
	}
}

func TestDrag_ProtocolErrors(t *testing.T) {
	svc := newService(testDeck())
	res, _ := svc.NewGame(context.Background())
	id := res.Board.GameID

	if _, err := svc.DragEnd(context.Background(), id, "AC", nil); !errors.Is(err, domain.ErrNoTransaction) {
		t.Errorf("expected ErrNoTransaction, got %v", err)
	}
	if _, err := svc.DragStart(context.Background(), id, "AC"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.DragStart(context.Background(), id, "KD"); !errors.Is(err, domain.ErrTransactionOpen) {
		t.Errorf("expected ErrTransactionOpen, got %v", err)
	}
	if _, _, err := svc.DragMove(id, "KD", 1, 1); !errors.Is(err, domain.ErrNoTransaction) {
		t.Errorf("expected ErrNoTransaction for the wrong card, got %v", err)
	}

	res, err := svc.CancelDrag(context.Background(), id, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Board.Dragging != "" || res.Moved {
		t.Errorf("expected the drag to be aborted, got %+v", res)
	}
	if _, err := svc.DragStart(context.Background(), id, "KD"); err != nil {
		t.Errorf("expected a new drag after cancel, got %v", err)
	}
}

func TestCancelDrag_OnlyNamedCard(t *testing.T) {
	svc := newService(testDeck())
	res, _ := svc.NewGame(context.Background())
	id := res.Board.GameID

	if _, err := svc.CancelDrag(context.Background(), id, "AC"); !errors.Is(err, domain.ErrNoTransaction) {
		t.Errorf("expected ErrNoTransaction without a drag, got %v", err)
	}
	if _, err := svc.DragStart(context.Background(), id, "AC"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CancelDrag(context.Background(), id, "AD"); !errors.Is(err, domain.ErrNoTransaction) {
		t.Errorf("expected ErrNoTransaction for another card, got %v", err)
	}
	b, _ := svc.Board(id)
	if b.Dragging != "AC" {
		t.Fatalf("drag of AC was cancelled by a cancel for AD: %+v", b.Dragging)
	}

	res, err := svc.CancelDrag(context.Background(), id, "AC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Board.Dragging != "" {
		t.Errorf("expected the drag to be aborted, got %q", res.Board.Dragging)
	}
}

// gatedDeckSource deals the first deck at once and holds every later draw
// until release is closed.
type gatedDeckSource struct {
	records []domain.CardRecord
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (g *gatedDeckSource) Draw(ctx context.Context) ([]domain.CardRecord, error) {
	g.calls++
	if g.calls == 1 {
		return g.records, nil
	}
	close(g.entered)
	select {
	case <-g.release:
		return g.records, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRestart_GameClosedDuringFetchStaysClosed(t *testing.T) {
	ds := &gatedDeckSource{
		records: testDeck(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := app.NewSolitaireService(ds, slog.Default(), 0.25)
	res, err := svc.NewGame(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := res.Board.GameID

	done := make(chan error, 1)
	go func() {
		_, err := svc.Restart(context.Background(), id)
		done <- err
	}()

	<-ds.entered
	if err := svc.Close(context.Background(), id); err != nil {
		t.Fatalf("close: %v", err)
	}
	close(ds.release)

	if err := <-done; !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound from restart, got %v", err)
	}
	if _, err := svc.Board(id); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("closed game came back: %v", err)
	}
}

func TestRestart_MovesDuringFetchLandOnOldGame(t *testing.T) {
	ds := &gatedDeckSource{
		records: testDeck(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := app.NewSolitaireService(ds, slog.Default(), 0.25)
	res, _ := svc.NewGame(context.Background())
	id := res.Board.GameID

	done := make(chan error, 1)
	go func() {
		_, err := svc.Restart(context.Background(), id)
		done <- err
	}()

	<-ds.entered
	if _, err := svc.Draw(context.Background(), id); err != nil {
		t.Fatalf("draw during restart: %v", err)
	}
	close(ds.release)
	if err := <-done; err != nil {
		t.Fatalf("restart: %v", err)
	}

	b, err := svc.Board(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pile(b, "stock").Count; got != 24 {
		t.Errorf("expected a fresh stock after restart, got %d cards", got)
	}
}

func TestRestartAndClose(t *testing.T) {
	svc := newService(testDeck())
	res, _ := svc.NewGame(context.Background())
	id := res.Board.GameID

	if _, err := svc.AutoMove(context.Background(), id, "AC"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := svc.Restart(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Board.GameID != id {
		t.Errorf("restart changed the game ID to %q", res.Board.GameID)
	}
	if got := pile(res.Board, "foundation-0").Count; got != 0 {
		t.Errorf("expected a fresh deal, foundation-0 has %d cards", got)
	}

	if err := svc.Close(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Board(id); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound after close, got %v", err)
	}
}

func TestPlayToWin(t *testing.T) {
	svc := newService(winnableDeck())
	res, err := svc.NewGame(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := res.Board.GameID
	ctx := context.Background()

	wins := 0
	for range 24 {
		res, err = svc.Draw(ctx, id)
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		code := top(pile(res.Board, "waste")).Code
		res, err = svc.AutoMove(ctx, id, code)
		if err != nil {
			t.Fatalf("auto move %s: %v", code, err)
		}
		if !strings.HasPrefix(res.Destination, "foundation-") {
			t.Fatalf("expected %s on a foundation, got %q", code, res.Destination)
		}
	}

	next := map[domain.Suit]domain.Rank{
		domain.Clubs: 7, domain.Diamonds: 7, domain.Hearts: 7, domain.Spades: 7,
	}
	for round := 0; !res.Board.Won && round < 60; round++ {
		for _, p := range res.Board.Piles {
			if p.Kind != domain.TableauPile {
				continue
			}
			c := top(p)
			if !c.FaceUp || next[c.Suit] != c.Rank {
				continue
			}
			res, err = svc.AutoMove(ctx, id, c.Code)
			if err != nil {
				t.Fatalf("auto move %s: %v", c.Code, err)
			}
			if res.JustWon {
				wins++
			}
			next[c.Suit]++
			break
		}
	}

	if !res.Board.Won {
		t.Fatal("expected the game to be won")
	}
	if wins != 1 {
		t.Errorf("expected one win notification, got %d", wins)
	}
	if _, err := svc.Draw(ctx, id); !errors.Is(err, domain.ErrGameOver) {
		t.Errorf("expected ErrGameOver after the win, got %v", err)
	}
}
