package http

import (
	"github.com/randomtoy/klondike-go/internal/app"
	"github.com/randomtoy/klondike-go/internal/domain"
)

// GameResponse is the JSON shape returned by every game endpoint.
type GameResponse struct {
	Game        BoardResp            `json:"game"`
	Moved       bool                 `json:"moved"`
	Destination string               `json:"destination,omitempty"`
	Draw        string               `json:"draw,omitempty"`
	Render      []domain.Instruction `json:"render,omitempty"`
	Won         bool                 `json:"won,omitempty"`
	Meta        MetaResp             `json:"meta"`
}

type BoardResp struct {
	ID              string     `json:"id"`
	Ready           bool       `json:"ready"`
	Won             bool       `json:"won"`
	StockRecyclable bool       `json:"stock_recyclable"`
	Dragging        string     `json:"dragging,omitempty"`
	Piles           []PileResp `json:"piles"`
}

type PileResp struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Count     int        `json:"count"`
	Suit      string     `json:"suit,omitempty"`
	Completed bool       `json:"completed,omitempty"`
	Cards     []CardResp `json:"cards"`
}

type CardResp struct {
	Code        string `json:"code,omitempty"`
	Suit        string `json:"suit,omitempty"`
	Color       string `json:"color,omitempty"`
	Rank        int    `json:"rank,omitempty"`
	FaceUp      bool   `json:"face_up"`
	Image       string `json:"image"`
	ActiveIndex *int   `json:"active_index,omitempty"`
	Offset      int    `json:"offset"`
	Z           int    `json:"z"`
}

type MetaResp struct {
	RequestID string `json:"request_id,omitempty"`
}

// CandidateReq is a pile the released card overlaps, as a fraction of the
// pile's hit area.
type CandidateReq struct {
	Pile    string  `json:"pile"`
	Overlap float64 `json:"overlap"`
}

// DragRequest is the body of the drag endpoints.
type DragRequest struct {
	Card       string         `json:"card"`
	DX         float64        `json:"dx"`
	DY         float64        `json:"dy"`
	Candidates []CandidateReq `json:"candidates"`
}

type DragOffsetResponse struct {
	Card string  `json:"card"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toResponse(r app.MoveResult, requestID string) GameResponse {
	resp := GameResponse{
		Game:        toBoard(r.Board),
		Moved:       r.Moved,
		Destination: r.Destination,
		Render:      r.Render,
		Won:         r.JustWon,
		Meta:        MetaResp{RequestID: requestID},
	}
	if r.Draw != domain.DrawNothing {
		resp.Draw = r.Draw.String()
	}
	return resp
}

func toBoard(b app.Board) BoardResp {
	piles := make([]PileResp, len(b.Piles))
	for i, p := range b.Piles {
		cards := make([]CardResp, len(p.Cards))
		for j, c := range p.Cards {
			cards[j] = CardResp{
				Code:   c.Code,
				Suit:   string(c.Suit),
				Color:  string(c.Color),
				Rank:   int(c.Rank),
				FaceUp: c.FaceUp,
				Image:  c.Image,
				Offset: c.Offset,
				Z:      c.Z,
			}
			if c.ActiveIndex >= 0 {
				idx := c.ActiveIndex
				cards[j].ActiveIndex = &idx
			}
		}
		piles[i] = PileResp{
			ID:        p.ID,
			Kind:      p.Kind.String(),
			Count:     p.Count,
			Suit:      string(p.Suit),
			Completed: p.Completed,
			Cards:     cards,
		}
	}
	return BoardResp{
		ID:              b.GameID,
		Ready:           b.Ready,
		Won:             b.Won,
		StockRecyclable: b.StockRecyclable,
		Dragging:        b.Dragging,
		Piles:           piles,
	}
}

func toCandidates(in []CandidateReq) []app.Candidate {
	out := make([]app.Candidate, len(in))
	for i, c := range in {
		out[i] = app.Candidate{Pile: c.Pile, Overlap: c.Overlap}
	}
	return out
}
