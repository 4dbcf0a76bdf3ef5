package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrusso91/aerobook/api"
	"github.com/mrusso91/aerobook/config"
	"github.com/mrusso91/aerobook/internal/service/booking"
	"github.com/mrusso91/aerobook/internal/service/flights"
	"github.com/mrusso91/aerobook/internal/service/search"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, searchSvc search.SearchUseCase, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) error {
	engine := newRouter(cfg, searchSvc, flightSvc, bookingSvc)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, searchSvc search.SearchUseCase, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	secret := cfg.Auth.SecretKey()

	root := engine.Group("/")
	api.NewCatalogHandler(searchSvc, flightSvc).Register(root, secret)
	api.NewFlightHandler(searchSvc, flightSvc, bookingSvc).Register(engine.Group("/flights"), secret)
	api.NewTicketHandler(bookingSvc).Register(engine.Group("/tickets"), secret)

	return engine
}

// SetupLogger routes all slog output through a JSON handler on stdout.
func SetupLogger() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}
