package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/randomtoy/klondike-go/internal/app"
)

const (
	// maxMessageSize caps a single client gesture.
	maxMessageSize = 4096
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// ClientMessage is a gesture sent by the browser over the game socket.
type ClientMessage struct {
	Type       string         `json:"type"`
	RequestID  string         `json:"requestId,omitempty"`
	Card       string         `json:"card,omitempty"`
	DX         float64        `json:"dx,omitempty"`
	DY         float64        `json:"dy,omitempty"`
	Candidates []CandidateReq `json:"candidates,omitempty"`
}

type ServerMessage struct {
	Type      string              `json:"type"`
	RequestID string              `json:"requestId,omitempty"`
	State     *GameResponse       `json:"state,omitempty"`
	Drag      *DragOffsetResponse `json:"drag,omitempty"`
	Error     *ErrorView          `json:"error,omitempty"`
}

type ErrorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stream upgrades to a WebSocket and feeds gestures into the game until
// the client goes away. A drag this socket started and never finished is
// aborted on disconnect.
func (h *Handler) Stream(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.svc.Board(id); err != nil {
		return mapError(c, err)
	}
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s := &stream{
		svc:    h.svc,
		conn:   conn,
		gameID: id,
		logger: requestLogger(c),
	}
	s.run(c.Request().Context())
	return nil
}

type stream struct {
	svc    *app.SolitaireService
	conn   *websocket.Conn
	gameID string
	logger *slog.Logger
	// dragging is the card this socket picked up, if its drag is still open.
	dragging string
}

func (s *stream) run(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go s.ping(stop)

	defer func() {
		if s.dragging == "" {
			return
		}
		if _, err := s.svc.CancelDrag(context.WithoutCancel(ctx), s.gameID, s.dragging); err != nil {
			s.logger.Debug("cancel drag on close", "card", s.dragging, "error", err)
		}
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := s.sendError("", "bad_request", "invalid json"); err != nil {
				return
			}
			continue
		}
		if err := s.handle(ctx, msg); err != nil {
			s.logger.Debug("websocket write", "error", err)
			return
		}
	}
}

// ping keeps the read deadline alive on an idle but healthy connection.
func (s *stream) ping(stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *stream) handle(ctx context.Context, msg ClientMessage) error {
	switch msg.Type {
	case "request_state":
		b, err := s.svc.Board(s.gameID)
		return s.sendResult(msg.RequestID, app.MoveResult{Board: b}, err)
	case "draw":
		res, err := s.svc.Draw(ctx, s.gameID)
		return s.sendResult(msg.RequestID, res, err)
	case "click":
		res, err := s.svc.AutoMove(ctx, s.gameID, msg.Card)
		return s.sendResult(msg.RequestID, res, err)
	case "restart":
		res, err := s.svc.Restart(ctx, s.gameID)
		if err == nil {
			s.dragging = ""
		}
		return s.sendResult(msg.RequestID, res, err)
	case "drag_start":
		res, err := s.svc.DragStart(ctx, s.gameID, msg.Card)
		if err == nil {
			s.dragging = msg.Card
		}
		return s.sendResult(msg.RequestID, res, err)
	case "drag_move":
		x, y, err := s.svc.DragMove(s.gameID, msg.Card, msg.DX, msg.DY)
		if err != nil {
			return s.sendErr(msg.RequestID, err)
		}
		return s.write(ServerMessage{
			Type:      "drag",
			RequestID: msg.RequestID,
			Drag:      &DragOffsetResponse{Card: msg.Card, X: x, Y: y},
		})
	case "drag_end":
		if err := validateDrag(DragRequest{Card: msg.Card, Candidates: msg.Candidates}); err != nil {
			return s.sendErr(msg.RequestID, err)
		}
		res, err := s.svc.DragEnd(ctx, s.gameID, msg.Card, toCandidates(msg.Candidates))
		if err == nil && msg.Card == s.dragging {
			s.dragging = ""
		}
		return s.sendResult(msg.RequestID, res, err)
	case "drag_cancel":
		res, err := s.svc.CancelDrag(ctx, s.gameID, msg.Card)
		if err == nil && (msg.Card == "" || msg.Card == s.dragging) {
			s.dragging = ""
		}
		return s.sendResult(msg.RequestID, res, err)
	default:
		return s.sendError(msg.RequestID, "unknown_type", "unknown message type")
	}
}

func (s *stream) sendResult(reqID string, res app.MoveResult, err error) error {
	if err != nil {
		return s.sendErr(reqID, err)
	}
	resp := toResponse(res, reqID)
	if err := s.write(ServerMessage{Type: "state", RequestID: reqID, State: &resp}); err != nil {
		return err
	}
	if res.JustWon {
		return s.write(ServerMessage{Type: "won", RequestID: reqID})
	}
	return nil
}

func (s *stream) sendErr(reqID string, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status >= 500 {
		s.logger.Error("websocket request failed", "error", err)
		msg = code
	}
	return s.sendError(reqID, code, msg)
}

func (s *stream) sendError(reqID, code, message string) error {
	return s.write(ServerMessage{
		Type:      "error",
		RequestID: reqID,
		Error:     &ErrorView{Code: code, Message: message},
	})
}

func (s *stream) write(msg ServerMessage) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}
