package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mercadash/internal/cache"
	"mercadash/internal/config"
	"mercadash/internal/fx/dolarapi"
	"mercadash/internal/httpx"
	"mercadash/internal/logging"
	"mercadash/internal/marketdata/yahoo"
	"mercadash/internal/news/googlenews"
	"mercadash/internal/quote"
)

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fallback := logging.New("info")
		fallback.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Server.LogLevel)

	httpClient := httpx.New(time.Duration(cfg.Yahoo.TimeoutSec) * time.Second)

	market := yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(httpClient.HTTP),
		yahoo.WithRateLimit(cfg.Yahoo.RateLimitPerSec),
		yahoo.WithMaxSymbolsPerRequest(cfg.Yahoo.MaxSymbolsPerRequest),
		yahoo.WithLogger(logger.With().Str("component", "yahoo").Logger()),
	)

	a := &app{
		cfg:      cfg,
		cache:    cache.New(),
		market:   market,
		fx:       dolarapi.New(cfg.DolarAPI.URL, httpClient, logger.With().Str("component", "dolarapi").Logger()),
		news:     googlenews.New(cfg.News.BaseURL, httpClient, logger.With().Str("component", "news").Logger()),
		resolver: quote.NewResolver(cfg.ADRMap),
		logger:   logger,
	}

	mux := http.NewServeMux()
	a.routes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(logger, mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
