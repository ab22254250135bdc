// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

// Package main is the entry point for the Savora recommendation server.
//
// Savora serves hybrid restaurant recommendations: fast deterministic
// filtering and scoring over an in-memory catalog, with optional LLM
// re-ranking for richer ordering and explanations.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML, env)
//  2. Logging: zerolog structured logging
//  3. Catalog: CSV dataset load into an immutable snapshot store
//  4. LLM client and reranker (only when LLM_ENABLED and an API key)
//  5. Recommendation engine
//  6. HTTP server with graceful shutdown on SIGINT/SIGTERM
//
// # Configuration
//
// Settings come from config.yaml and environment variables, env wins.
// The LLM API key is accepted from the environment only:
//
//	export CATALOG_PATH=data/restaurants.csv
//	export LLM_ENABLED=true
//	export GEMINI_API_KEY=your-key
//	./savora
//
// Without an API key the server runs heuristic-only; use_llm requests
// then fall back to deterministic ordering.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/raghavbk/savora/internal/api"
	"github.com/raghavbk/savora/internal/catalog"
	"github.com/raghavbk/savora/internal/config"
	"github.com/raghavbk/savora/internal/llm"
	"github.com/raghavbk/savora/internal/logging"
	"github.com/raghavbk/savora/internal/recommend"
	"github.com/raghavbk/savora/internal/recommend/rerank"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config not available yet.
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(cfg.Logging)
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("catalog", cfg.Catalog.Path).
		Bool("llm_enabled", cfg.LLM.Enabled).
		Msg("starting savora")

	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load catalog")
	}

	engine, err := recommend.NewEngine(&cfg.Recommend, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create engine")
	}
	engine.SetCatalogProvider(store)

	llmClient := setupReranker(cfg, engine)
	if llmClient != nil {
		defer func() {
			if err := llmClient.Close(); err != nil {
				logging.Error().Err(err).Msg("error closing llm client")
			}
		}()
	}

	handler := api.NewHandler(engine, store, cfg.Server.RequestTimeout)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logging.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logging.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	logging.Info().Msg("shutdown complete")
}

// setupReranker wires the LLM client and reranker into the engine when
// LLM re-ranking is enabled and configured. Returns the client for
// cleanup, or nil when the stage stays disabled.
func setupReranker(cfg *config.Config, engine *recommend.Engine) llm.Client {
	if !cfg.LLM.Enabled {
		logging.Info().Msg("llm re-ranking disabled")
		return nil
	}
	if cfg.LLM.APIKey == "" {
		logging.Warn().Msg("llm enabled but no api key set, running heuristic-only")
		return nil
	}

	client, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create llm client")
	}

	reranker, err := rerank.New(cfg.Rerank, client)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create reranker")
	}
	engine.SetReranker(reranker)
	logging.Info().
		Str("provider", string(cfg.LLM.Provider)).
		Str("model", cfg.LLM.Model).
		Msg("llm re-ranking enabled")
	return client
}
