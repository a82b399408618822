package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/totegamma/lobbywatch/client"
	"github.com/totegamma/lobbywatch/internal/config"
	"github.com/totegamma/lobbywatch/internal/infra/database"
	"github.com/totegamma/lobbywatch/internal/infra/gateway"
	"github.com/totegamma/lobbywatch/internal/infra/repository"
	"github.com/totegamma/lobbywatch/internal/logger"
	"github.com/totegamma/lobbywatch/internal/present/rest"
	rmiddleware "github.com/totegamma/lobbywatch/internal/present/rest/middleware"
	"github.com/totegamma/lobbywatch/internal/service"
	"github.com/totegamma/lobbywatch/internal/usecase"
)

const serviceName = "lobbywatch"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(serviceName, conf.App.Debug, conf.App.Console)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint, serviceName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to setup trace provider")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown trace provider")
			}
		}()
	}

	user, err := conf.User()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid steam user")
	}

	db, err := database.NewPostgres(ctx, conf.Server.PostgresDsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := database.MigratePostgres(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	rdb, err := database.NewRedis(ctx, conf.Server.RedisAddr, "", conf.Server.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	var mc *memcache.Client
	if conf.Server.MemcachedAddr != "" {
		mc, err = database.NewMemcached(conf.Server.MemcachedAddr)
		if err != nil {
			log.Warn().Err(err).Msg("memcached unavailable, continuing without it")
			mc = nil
		}
	}

	steamClient := client.New(conf.Steam.APIKey, conf.Steam.BaseURL, conf.Steam.CacheTTL)
	steamGateway := gateway.NewSteamGateway(steamClient, mc, conf.Steam.CacheTTL)
	recordRepo := repository.NewRecordRepository(db)
	signalService := service.NewSignalService(rdb)

	playerUC := usecase.NewPlayerUsecase(user, recordRepo, steamGateway, signalService)
	recordUC := usecase.NewRecordUsecase(recordRepo)

	handler := rest.NewHandler(playerUC, recordUC, signalService)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}
	e.Use(rmiddleware.RequestLogger)
	handler.RegisterRoutes(e)

	go runCycles(ctx, playerUC, conf.App.CycleInterval)

	go func() {
		log.Info().Str("listen", conf.Server.Listen).Msg("server started")
		if err := e.Start(conf.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server")
	}
}

// runCycles ages the registry and fetches missing Steam profiles once per interval.
func runCycles(ctx context.Context, playerUC *usecase.PlayerUsecase, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned := playerUC.RefreshCycle(ctx)
			if len(pruned) > 0 {
				log.Debug().Int("pruned", len(pruned)).Msg("refresh cycle")
			}
			if _, err := playerUC.EnrichPending(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to enrich players")
			}
		}
	}
}
