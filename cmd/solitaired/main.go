package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/klondike-go/internal/adapters/decks"
	httpadapter "github.com/randomtoy/klondike-go/internal/adapters/http"
	"github.com/randomtoy/klondike-go/internal/app"
	"github.com/randomtoy/klondike-go/internal/config"
)

// stdRNG delegates to math/rand/v2 (auto-seeded).
type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.IntN(n) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	svc := app.NewSolitaireService(deckSource(cfg, logger), logger, cfg.DropOverlap)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))

	handler := httpadapter.NewHandler(svc)
	handler.Register(e)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr, "deck_sources", cfg.DeckSources)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func deckSource(cfg config.Config, logger *slog.Logger) *decks.Chain {
	var sources []decks.Named
	for _, name := range cfg.DeckSources {
		switch name {
		case config.SourceAPI:
			sources = append(sources, decks.Named{
				Name:   name,
				Source: decks.NewClient(&http.Client{Timeout: cfg.DeckAPITimeout}, cfg.DeckAPIBaseURL, logger),
			})
		case config.SourceEmbedded:
			sources = append(sources, decks.Named{Name: name, Source: decks.NewEmbeddedStore(stdRNG{})})
		}
	}
	return decks.NewChain(logger, sources...)
}
