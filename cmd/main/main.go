package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"device-match-service/internal/catalog"
	"device-match-service/internal/config"
	"device-match-service/internal/match/conf"
	matchHnd "device-match-service/internal/match/handler"
	"device-match-service/internal/match/service"
	serverhttp "device-match-service/server/http"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	matchCfg, err := conf.Load(cfg.MatchConfig)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.MatchConfig).Msg("load matching config")
	}

	pre, err := service.NewPreprocessor(matchCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build preprocessor")
	}
	gen := service.NewRuleGenerator(pre)
	store := catalog.NewStore(gen, logger)
	cache := service.NewDetailCache(matchCfg.MaxCacheSize)
	engine := service.NewEngine(matchCfg, store, cache, logger)

	if cfg.DeviceFile != "" {
		f, err := os.Open(cfg.DeviceFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.DeviceFile).Msg("open device catalog")
		}
		n, err := store.LoadFile(f, cfg.DeviceFile)
		f.Close()
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.DeviceFile).Msg("load device catalog")
		}
		logger.Info().Int("devices", n).Str("path", cfg.DeviceFile).Msg("catalog loaded")
	}

	h := matchHnd.New(pre, engine, store, cache, logger)
	r := serverhttp.NewRouter(cfg, h, logger)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
