// main.go
//
// Entry point for the dexscope quiz server.
// Loads configuration, sets up zerolog, wires the PokéAPI client, the session
// store and its sweeper into the HTTP server, and shuts down gracefully on
// SIGINT/SIGTERM.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/dexscope/internal/config"
	"github.com/robalobadob/dexscope/internal/httpserver"
	"github.com/robalobadob/dexscope/internal/pokeapi"
	"github.com/robalobadob/dexscope/internal/session"
	"github.com/robalobadob/dexscope/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg.Log)

	client := pokeapi.New(pokeapi.Options{
		BaseURL:      cfg.PokeAPI.BaseURL,
		Timeout:      cfg.PokeAPI.Timeout,
		MaxAttempts:  cfg.PokeAPI.MaxAttempts,
		StrictFilter: cfg.PokeAPI.StrictFilter,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := store.NewMemoryStore()
	store.NewSweeper(mem, cfg.Session.TTL, cfg.Session.SweepInterval).Start(ctx)

	srv := httpserver.New(mem, client, httpserver.Options{
		ClientOrigin:   cfg.Server.ClientOrigin,
		Production:     cfg.Server.Production,
		HandlerTimeout: cfg.Server.HandlerTimeout,
		SessionSecret:  cfg.Session.Secret,
		CookieName:     cfg.Session.CookieName,
		Session: session.Options{
			StrongMinBST:  cfg.Quiz.StrongMinBST,
			LookupTimeout: cfg.Quiz.LookupTimeout,
			DailySalt:     cfg.Quiz.DailySalt,
		},
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("pokeapi", cfg.PokeAPI.BaseURL).Msg("starting dexscope")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(c config.LogConfig) {
	if lvl, err := zerolog.ParseLevel(c.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
