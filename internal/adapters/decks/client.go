package decks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/randomtoy/klondike-go/internal/domain"
)

// Client implements ports.DeckSource via the deckofcardsapi.com API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// drawResponse mirrors GET /api/deck/new/draw/.
type drawResponse struct {
	Success   bool   `json:"success"`
	DeckID    string `json:"deck_id"`
	Remaining int    `json:"remaining"`
	Error     string `json:"error"`
	Cards     []struct {
		Code  string `json:"code"`
		Image string `json:"image"`
		Value string `json:"value"`
		Suit  string `json:"suit"`
	} `json:"cards"`
}

// Draw asks the API for a new shuffled deck and draws all 52 cards from it.
func (c *Client) Draw(ctx context.Context) ([]domain.CardRecord, error) {
	records, err := c.draw(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDeckFetch, err)
	}
	return records, nil
}

func (c *Client) draw(ctx context.Context) ([]domain.CardRecord, error) {
	url := fmt.Sprintf("%s/api/deck/new/draw/?count=%d", c.baseURL, domain.DeckSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(body))
	}

	var dr drawResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !dr.Success {
		return nil, fmt.Errorf("upstream refused draw: %s", dr.Error)
	}
	if len(dr.Cards) != domain.DeckSize {
		return nil, fmt.Errorf("upstream returned %d cards, want %d", len(dr.Cards), domain.DeckSize)
	}

	c.logger.DebugContext(ctx, "deck drawn", "deck_id", dr.DeckID, "remaining", dr.Remaining)

	back := c.baseURL + "/static/img/back.png"
	records := make([]domain.CardRecord, len(dr.Cards))
	for i, card := range dr.Cards {
		records[i] = domain.CardRecord{
			Code:  card.Code,
			Suit:  card.Suit,
			Value: card.Value,
			Image: card.Image,
			Back:  back,
		}
	}
	return records, nil
}
