package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/vlmaksime/ntv-catalog/pkg/ntv"
)

const version = "1.0.0"

func main() {
	mainCtx, mainCtxCancel := context.WithCancel(context.Background())

	// Bootstrap logger, replaced as soon as the log config is known.
	logger, err := newLogger("debug", "console")
	if err != nil {
		panic(err)
	}

	logger.Info("Parsing config...")
	config := parseConfig(logger)
	config.validate(logger)
	configJSON, err := json.Marshal(config)
	if err != nil {
		logger.Fatal("Couldn't marshal config to JSON", zap.Error(err))
	}
	logger, err = newLogger(config.LogLevel, config.LogEncoding)
	if err != nil {
		logger.Fatal("Couldn't create logger", zap.Error(err))
	}
	defer logger.Sync()
	logger.Info("Parsed config", zap.String("config", string(configJSON)), zap.String("version", version))

	// Load or create caches

	registerTypes()
	genreItems, err := loadGoCache(config.CachePath + "/genres.gob")
	var genreGoCache *gocache.Cache
	if err != nil {
		logger.Info("Couldn't load genre cache from file, starting with an empty one", zap.Error(err))
		genreGoCache = gocache.New(config.CacheAge, 10*time.Minute)
	} else {
		genreGoCache = gocache.NewFrom(config.CacheAge, 10*time.Minute, genreItems)
	}
	genres := &genreCache{cache: genreGoCache}

	cacheMaxBytes := config.CacheMaxMB * 1024 * 1024
	videoFastCache := fastcache.LoadFromFileOrNew(config.CachePath+"/video", cacheMaxBytes)
	videos := &videoCache{cache: videoFastCache}

	fastCaches := map[string]*fastcache.Cache{
		"video": videoFastCache,
	}
	goCaches := map[string]*gocache.Cache{
		"genres": genreGoCache,
	}

	// Create the API client

	client := ntv.NewClient(ntv.NewClientOpts(config.BaseURL, 10*time.Second, 100), logger)

	// Set up the server

	logger.Info("Setting up server")
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           5 * time.Second,
		WriteTimeout:          60 * time.Second,
	})
	app.Use(recover.New(), createLoggingMiddleware(logger))

	app.Get("/health", createHealthHandler())
	app.Get("/catalog/genres", createGenresHandler(client, genres, logger))
	app.Get("/catalog/genres/:genre/programs", createProgramsHandler(config, client, genres, logger))
	app.Get("/catalog/programs/:shortcat/seasons", createSeasonsHandler(client, logger))
	app.Get("/catalog/programs/:shortcat/archive/:archive/episodes", createEpisodesHandler(config, client, logger))
	app.Get("/video/:id", createVideoHandler(config, client, videos, logger))
	app.Get("/video/:id/play", createPlayHandler(config, client, videos, logger))

	addr := config.BindAddr + ":" + strconv.Itoa(config.Port)
	logger.Info("Starting server", zap.String("address", addr))
	go func() {
		if err := app.Listen(addr); err != nil {
			if mainCtx.Err() == nil {
				logger.Fatal("Couldn't start server", zap.Error(err))
			}
		}
	}()

	// Save caches to file every hour
	go func() {
		for {
			time.Sleep(time.Hour)
			persistCaches(mainCtx, config.CachePath, fastCaches, goCaches, logger)
		}
	}()

	// Print cache stats every hour
	go func() {
		// Don't run at the same time as the persistence
		time.Sleep(time.Minute)
		for {
			logCacheStats(fastCaches, goCaches, logger)
			time.Sleep(time.Hour)
		}
	}()

	// Graceful shutdown

	c := make(chan os.Signal, 1)
	// Accept SIGINT (Ctrl+C) and SIGTERM (`docker stop`)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	logger.Info("Received signal, shutting down...", zap.Stringer("signal", sig))
	mainCtxCancel()
	if err := app.Shutdown(); err != nil {
		logger.Error("Error shutting down server", zap.Error(err))
	}
	// One last persistence so a restart starts warm.
	persistCaches(context.Background(), config.CachePath, fastCaches, goCaches, logger)
	logger.Info("Server shut down")
}

func newLogger(level, encoding string) (*zap.Logger, error) {
	logLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logConfig := zap.NewProductionConfig()
	if encoding == "console" {
		logConfig = zap.NewDevelopmentConfig()
	}
	logConfig.Level = logLevel
	logConfig.Encoding = encoding
	return logConfig.Build()
}
