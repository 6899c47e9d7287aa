package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/crontex/internal/app"
	"github.com/phenrril/crontex/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("configuración inválida")
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDev() {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := app.OpenDB(cfg)
	if err != nil {
		zlog.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}

	application, err := app.NewApp(db, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create app")
	}
	if err := application.MigrateAndSeed(); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate and seed database")
	}

	port := cfg.Port
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		zlog.Warn().Err(err).Str("port", port).Msg("puerto ocupado, probando alternativos")
		for p := 8081; p <= 8090; p++ {
			l2, err2 := net.Listen("tcp", net.JoinHostPort("", fmt.Sprint(p)))
			if err2 == nil {
				ln = l2
				port = fmt.Sprint(p)
				break
			}
		}
		if ln == nil {
			zlog.Fatal().Err(err).Msg("no hay puerto disponible")
		}
	}

	server := &http.Server{
		Handler:           application.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info().Str("port", port).Str("driver", cfg.DBDriver).Msg("escuchando")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error().Err(err).Msg("shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
