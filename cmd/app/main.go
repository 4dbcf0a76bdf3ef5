package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mrusso91/aerobook/config"
	"github.com/mrusso91/aerobook/internal/bootstrap"
	"github.com/mrusso91/aerobook/internal/cache"
	"github.com/mrusso91/aerobook/internal/kafka"
	"github.com/mrusso91/aerobook/internal/repository"
	"github.com/mrusso91/aerobook/internal/service/booking"
	"github.com/mrusso91/aerobook/internal/service/flights"
	"github.com/mrusso91/aerobook/internal/service/search"
)

func main() {
	_ = godotenv.Load()
	bootstrap.SetupLogger()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.DashboardCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	catalogRepo := repository.NewCatalogRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool, time.Duration(cfg.Booking.ClaimTimeoutSeconds)*time.Second)

	searchService := search.NewSearchService(catalogRepo, flightRepo, cfg.Search.DefaultMaxPriceCents, cfg.Search.DefaultPageSize)
	flightService := flights.NewFlightService(catalogRepo, flightRepo, redisCache)
	bookingService := booking.NewBookingService(
		ticketRepo,
		flightRepo,
		redisCache,
		producer,
		cfg.Kafka.TicketsTopic,
		time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, searchService, flightService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
