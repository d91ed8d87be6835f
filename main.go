package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"yojiquiz/catalog"
	"yojiquiz/config"
	"yojiquiz/crypto"
	"yojiquiz/game"
	"yojiquiz/logger"
	"yojiquiz/migrations"
	"yojiquiz/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func RegisterRoutes(r *gin.Engine, h *game.GameHandler) {
	r.GET("/ws", h.WebsocketHandler)

	rooms := r.Group("/rooms")
	rooms.GET("/:code", h.GetRoomHandler)
	rooms.GET("/:code/watch", h.WatchRoomHandler)
	rooms.GET("/:code/results", h.GetResultsHandler)
}

func main() {
	cli, command, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	logger.Setup(cli.Debug, cli.Pretty)

	switch command {
	case "settings":
		if err := config.WriteDefaultSettings(os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("failed to write settings")
		}
	default:
		if err := serve(cli.Serve); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}
}

func serve(opts config.ServeCmd) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	settings, err := config.LoadSettings(opts.Config)
	if err != nil {
		return err
	}

	// Dependencies
	var (
		source  catalog.Source
		results game.ResultsRepo
	)
	if opts.PostgresURL != "" {
		if err := migrations.Migrate(opts.PostgresURL); err != nil {
			return err
		}
		pgRepo, err := storage.NewPostgresRepo(ctx, opts.PostgresURL)
		if err != nil {
			return err
		}
		defer pgRepo.Close()
		source = pgRepo
		results = pgRepo
	}

	cat, err := catalog.Load(ctx, source)
	if err != nil {
		return err
	}
	log.Info().Int("items", cat.Len()).Msg("quiz catalog loaded")

	var snapshots game.SnapshotStore = storage.NewMemorySnapshotStore()
	if opts.RedisURL != "" {
		redisStore, err := storage.NewRedisSnapshotStore(ctx, opts.RedisURL)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		snapshots = redisStore
	}

	tickerGen := game.NewTickerGen()
	registry := game.NewRegistry(game.NewCodeGen(), game.RoomDeps{
		Settings:  settings,
		Catalog:   cat,
		Rand:      game.NewGlobalRand(),
		Tickers:   tickerGen,
		Snapshots: snapshots,
		Results:   results,
	})
	tokenManager := crypto.NewJWTManager(opts.JWTKey, opts.TokenAge)
	service := game.NewService(registry, tokenManager, game.NewPlayerIdGen())
	gameHandler := game.NewGameHandler(service, registry, snapshots, results, tickerGen, opts.AllowedOrigins)

	r := CreateServer(opts.AllowedOrigins)
	RegisterRoutes(r, gameHandler)

	server := &http.Server{Addr: opts.Addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().Str("addr", opts.Addr).Msg("server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("SIGTERM or SIGINT received, closing rooms before shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	registry.CloseAll()
	log.Info().Msg("shutting down now")
	return nil
}
