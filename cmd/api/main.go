package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/sentsei-srs-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/services"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/workers"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	serverPort := getenv("PORT", "8080")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("Critical: JWT_SECRET is required")
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	log.Println("Connecting to database...")

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Fatalf("Critical: Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Println("Database connected successfully.")

	// Redis is optional: without it the API runs uncached and unlimited.
	var redisClient *redis.Client
	if rdb, err := cache.NewRedisClient(
		getenv("REDIS_HOST", "localhost"),
		getenv("REDIS_PORT", "6379"),
		os.Getenv("REDIS_PASSWORD"),
		0,
	); err != nil {
		log.Printf("Redis unavailable, running without cache: %v", err)
	} else {
		redisClient = rdb
	}

	userRepo := repository.NewPostgresUserRepository(db.DB)

	var deckRepo domain.DeckRepository = repository.NewPostgresDeckRepository(db)
	var statsCache services.StatsCache
	var statsWorker *workers.StatsWorker
	var notifier services.DeckChangeNotifier

	if redisClient != nil {
		deckRepo = repository.NewCachedDeckRepository(deckRepo, redisClient)
		sc := cache.NewStatsCache(redisClient)
		statsCache = sc
		statsWorker = workers.NewStatsWorker(deckRepo, sc)
		notifier = statsWorker
	}

	tokenService := services.NewTokenService(jwtSecret, "sentsei-api", 30*24*time.Hour, userRepo)
	authService := services.NewAuthService(userRepo)
	deckService := services.NewDeckService(deckRepo, notifier)
	statsService := services.NewStatsService(deckRepo, statsCache)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if statsWorker != nil {
		statsWorker.Start(workerCtx)
	}

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:  adapterHTTP.NewAuthHandler(authService, tokenService),
		DeckHandler:  adapterHTTP.NewDeckHandler(deckService),
		StatsHandler: adapterHTTP.NewStatsHandler(statsService),
		TokenService: tokenService,
		DB:           db,
		Redis:        redisClient,
		StartTime:    startTime,
	})

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Sentsei SRS API running on http://localhost:%s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
