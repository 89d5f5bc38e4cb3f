package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Deck source names accepted in DECK_SOURCES.
const (
	SourceAPI      = "api"
	SourceEmbedded = "embedded"
)

type Config struct {
	HTTPAddr       string
	LogLevel       slog.Level
	DeckSources    []string
	DeckAPIBaseURL string
	DeckAPITimeout time.Duration
	DropOverlap    float64
}

func Load() (Config, error) {
	c := Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		DeckSources:    parseList(envOr("DECK_SOURCES", SourceAPI+","+SourceEmbedded)),
		DeckAPIBaseURL: strings.TrimRight(envOr("DECK_API_BASE_URL", "https://deckofcardsapi.com"), "/"),
		DeckAPITimeout: 10 * time.Second,
		DropOverlap:    0.25,
	}

	if v := os.Getenv("DECK_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DECK_API_TIMEOUT %q: %w", v, err)
		}
		c.DeckAPITimeout = d
	}

	if v := os.Getenv("DROP_OVERLAP"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DROP_OVERLAP %q: %w", v, err)
		}
		if f <= 0 || f > 1 {
			return Config{}, fmt.Errorf("DROP_OVERLAP must be in (0, 1], got %v", f)
		}
		c.DropOverlap = f
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	if len(c.DeckSources) == 0 {
		return Config{}, fmt.Errorf("DECK_SOURCES must name at least one source")
	}
	for _, s := range c.DeckSources {
		if s != SourceAPI && s != SourceEmbedded {
			return Config{}, fmt.Errorf("unknown deck source %q in DECK_SOURCES", s)
		}
	}

	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseList(s string) []string {
	var items []string
	for _, m := range strings.Split(s, ",") {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			items = append(items, m)
		}
	}
	return items
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
