package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/dramatis/internal/queue"
	mid "github.com/OFFIS-RIT/dramatis/internal/server/middleware"
	"github.com/OFFIS-RIT/dramatis/internal/storage"
	"github.com/OFFIS-RIT/dramatis/internal/util"
	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/graph"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"
	"github.com/OFFIS-RIT/dramatis/pkg/projection"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// CatalogOptionsFromEnv reads the catalog tuning knobs.
func CatalogOptionsFromEnv() []catalog.Option {
	return []catalog.Option{
		catalog.WithIDs(util.NewID),
		catalog.WithParallelism(util.GetEnvNumeric("NAVIGATOR_PARALLELISM", graph.DefaultParallelism)),
		catalog.WithListLimit(util.GetEnvNumeric("LIST_LIMIT", projection.DefaultListLimit)),
	}
}

// New builds the echo instance around svc.
func New(svc *catalog.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(&mid.App{Catalog: svc}))
	e.Use(mid.Metrics)
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("8M"))

	RegisterRoutes(e)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gs, err := storage.OpenGraph(ctx, storage.GraphConfigFromEnv())
	if err != nil {
		logger.Fatal("Failed to open graph store", "err", err)
	}
	defer gs.Close()

	opts := CatalogOptionsFromEnv()
	if util.GetEnvBool("EVENTS_ENABLED", true) {
		conn, err := queue.Init(ctx, queue.ConfigFromEnv())
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		opts = append(opts, catalog.WithNotifier(queue.NewPublisher(ch)))
	}

	e := New(catalog.New(gs, opts...))

	go func() {
		port := strconv.Itoa(util.GetEnvNumeric("PORT", 8080))
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
