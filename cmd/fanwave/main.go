package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bn-mk/fanwave-crypto/internal/adapter/cache"
	"github.com/bn-mk/fanwave-crypto/internal/adapter/handler"
	"github.com/bn-mk/fanwave-crypto/internal/adapter/source"
	"github.com/bn-mk/fanwave-crypto/internal/adapter/storage"
	"github.com/bn-mk/fanwave-crypto/internal/application/service"
	"github.com/bn-mk/fanwave-crypto/internal/application/usecase"
	"github.com/bn-mk/fanwave-crypto/internal/infrastructure/config"
	"github.com/bn-mk/fanwave-crypto/internal/infrastructure/logger"
	"github.com/bn-mk/fanwave-crypto/internal/infrastructure/server"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to config file")
	portFlag   = flag.Int("port", 0, "Override server port")
	fetchFlag  = flag.Bool("fetch", false, "Run one market sync and exit")
	helpFlag   = flag.Bool("help", false, "Show help")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printUsage()
		os.Exit(0)
	}

	// Optional; env vars may come from the real environment instead.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *portFlag != 0 {
		cfg.Server.Port = *portFlag
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting fanwave-crypto", "version", "1.0.0")

	postgresAdapter, err := storage.NewPostgresAdapter(
		cfg.PostgresDSN(),
		cfg.PostgreSQL.MaxOpenConns,
		cfg.PostgreSQL.MaxIdleConns,
	)
	if err != nil {
		log.Error("failed to initialize postgres", "error", err)
		os.Exit(1)
	}
	defer postgresAdapter.Close()

	if err := postgresAdapter.InitSchema(context.Background()); err != nil {
		log.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	marketSource := source.NewClient(source.Options{
		BaseURL:        cfg.CoinGecko.BaseURL,
		APIKey:         cfg.CoinGecko.APIKey,
		VsCurrency:     cfg.CoinGecko.VsCurrency,
		PerPage:        cfg.CoinGecko.PerPage,
		MaxRetries:     cfg.CoinGecko.MaxRetries,
		RetryDelay:     cfg.CoinGecko.RetryDelay,
		RequestTimeout: cfg.CoinGecko.RequestTimeout,
	}, log)

	syncService := service.NewSyncService(marketSource, postgresAdapter, cfg.Sync.Workers, log)

	if *fetchFlag {
		if _, err := syncService.RunOnce(context.Background()); err != nil {
			log.Error("market sync failed", "error", err)
			os.Exit(1)
		}
		return
	}

	redisAdapter, err := cache.NewRedisAdapter(
		cfg.RedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		log.Error("failed to initialize redis", "error", err)
		os.Exit(1)
	}
	defer redisAdapter.Close()

	coinUseCase := usecase.NewCoinUseCase(
		postgresAdapter,
		redisAdapter,
		cfg.Cache.TopTTL,
		cfg.Cache.StatsTTL,
		log,
	)

	coinHandler := handler.NewCoinHandler(coinUseCase, cfg.Server.Debug, log)
	syncHandler := handler.NewSyncHandler(syncService, log)
	healthHandler := handler.NewHealthHandler(postgresAdapter, redisAdapter, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/crypto/top", coinHandler.Top)
	mux.HandleFunc("GET /api/crypto/search", coinHandler.Search)
	mux.HandleFunc("GET /api/crypto/stats", coinHandler.Stats)
	mux.HandleFunc("GET /api/crypto/{id}", coinHandler.Show)
	mux.HandleFunc("POST /api/crypto/sync", syncHandler.Trigger)
	mux.HandleFunc("GET /health", healthHandler.Check)

	srv := server.NewServer(cfg.Server.Port, mux, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, log)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	syncService.Start(ctx, cfg.Sync.Interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down gracefully")

	syncService.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	log.Info("shutdown complete")
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  fanwave [--config <path>] [--port <N>]")
	fmt.Println("  fanwave --fetch")
	fmt.Println("  fanwave --help")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config PATH  Path to config file (default configs/config.yaml)")
	fmt.Println("  --port N       Override server port")
	fmt.Println("  --fetch        Run one market sync and exit")
}
