package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/klondike-go/internal/app"
	"github.com/randomtoy/klondike-go/internal/domain"
)

var errBadRequest = errors.New("bad request")

type Handler struct {
	svc *app.SolitaireService
}

func NewHandler(svc *app.SolitaireService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/v1/games")
	g.POST("", h.CreateGame)
	g.GET("/:id", h.GetGame)
	g.DELETE("/:id", h.DeleteGame)
	g.POST("/:id/restart", h.RestartGame)
	g.POST("/:id/draw", h.Draw)
	g.POST("/:id/cards/:code/auto", h.AutoMove)
	g.POST("/:id/drag/start", h.DragStart)
	g.POST("/:id/drag/move", h.DragMove)
	g.POST("/:id/drag/end", h.DragEnd)
	g.POST("/:id/drag/cancel", h.DragCancel)
	g.GET("/:id/ws", h.Stream)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateGame(c echo.Context) error {
	res, err := h.svc.NewGame(c.Request().Context())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusCreated, toResponse(res, requestID(c)))
}

func (h *Handler) GetGame(c echo.Context) error {
	b, err := h.svc.Board(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(app.MoveResult{Board: b}, requestID(c)))
}

func (h *Handler) DeleteGame(c echo.Context) error {
	if err := h.svc.Close(c.Request().Context(), c.Param("id")); err != nil {
		return mapError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RestartGame(c echo.Context) error {
	return h.reply(c, func() (app.MoveResult, error) {
		return h.svc.Restart(c.Request().Context(), c.Param("id"))
	})
}

func (h *Handler) Draw(c echo.Context) error {
	return h.reply(c, func() (app.MoveResult, error) {
		return h.svc.Draw(c.Request().Context(), c.Param("id"))
	})
}

func (h *Handler) AutoMove(c echo.Context) error {
	return h.reply(c, func() (app.MoveResult, error) {
		return h.svc.AutoMove(c.Request().Context(), c.Param("id"), c.Param("code"))
	})
}

func (h *Handler) DragStart(c echo.Context) error {
	req, err := bindDrag(c)
	if err != nil {
		return mapError(c, err)
	}
	return h.reply(c, func() (app.MoveResult, error) {
		return h.svc.DragStart(c.Request().Context(), c.Param("id"), req.Card)
	})
}

func (h *Handler) DragMove(c echo.Context) error {
	req, err := bindDrag(c)
	if err != nil {
		return mapError(c, err)
	}
	x, y, err := h.svc.DragMove(c.Param("id"), req.Card, req.DX, req.DY)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, DragOffsetResponse{Card: req.Card, X: x, Y: y})
}

func (h *Handler) DragEnd(c echo.Context) error {
	req, err := bindDrag(c)
	if err != nil {
		return mapError(c, err)
	}
	return h.reply(c, func() (app.MoveResult, error) {
		return h.svc.DragEnd(c.Request().Context(), c.Param("id"), req.Card, toCandidates(req.Candidates))
	})
}

// DragCancel aborts the open drag. With ?card= only a drag of that card is
// aborted.
func (h *Handler) DragCancel(c echo.Context) error {
	return h.reply(c, func() (app.MoveResult, error) {
		return h.svc.CancelDrag(c.Request().Context(), c.Param("id"), c.QueryParam("card"))
	})
}

func (h *Handler) reply(c echo.Context, fn func() (app.MoveResult, error)) error {
	res, err := fn()
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(res, requestID(c)))
}

func bindDrag(c echo.Context) (DragRequest, error) {
	var req DragRequest
	if err := c.Bind(&req); err != nil {
		return DragRequest{}, fmt.Errorf("%w: invalid body", errBadRequest)
	}
	if err := validateDrag(req); err != nil {
		return DragRequest{}, err
	}
	return req, nil
}

func validateDrag(req DragRequest) error {
	if req.Card == "" {
		return fmt.Errorf("%w: card is required", errBadRequest)
	}
	for _, cand := range req.Candidates {
		if cand.Pile == "" {
			return fmt.Errorf("%w: candidate pile is required", errBadRequest)
		}
		if cand.Overlap < 0 || cand.Overlap > 1 {
			return fmt.Errorf("%w: overlap must be between 0 and 1", errBadRequest)
		}
	}
	return nil
}

// classify maps an error onto an HTTP status and a short machine-readable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound), errors.Is(err, domain.ErrUnknownCard):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrNotMovable),
		errors.Is(err, domain.ErrTransactionOpen),
		errors.Is(err, domain.ErrNoTransaction),
		errors.Is(err, domain.ErrGameOver),
		errors.Is(err, domain.ErrNotDealt):
		return http.StatusConflict, "illegal_state"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrDeckFetch), errors.Is(err, domain.ErrMalformedDeck):
		return http.StatusBadGateway, "deck_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func mapError(c echo.Context, err error) error {
	status, _ := classify(err)
	switch status {
	case http.StatusBadGateway:
		requestLogger(c).Error("deck source failure", "error", err)
		return c.JSON(status, ErrorResponse{Error: "deck source failure"})
	case http.StatusInternalServerError:
		requestLogger(c).Error("internal error", "error", err)
		return c.JSON(status, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(status, ErrorResponse{Error: err.Error()})
}
