package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tokenMirror/internal/model"
	"tokenMirror/internal/storage"
)

// HeadReader reports the chain head block.
type HeadReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// Store is the read surface the API needs.
type Store interface {
	storage.Reader
	Totals(ctx context.Context) (model.Totals, error)
}

// WatermarkReader reports the ingestion watermark.
type WatermarkReader interface {
	Load() uint64
}

// Deps are the collaborators behind the API. Head and Watermark are optional.
type Deps struct {
	Store     Store
	Head      HeadReader
	Watermark WatermarkReader
	Logger    *zap.Logger
}

// Server serves read-only analytics over the mirrored events.
type Server struct {
	app       *fiber.App
	store     Store
	head      HeadReader
	watermark WatermarkReader
	logger    *zap.Logger
	now       func() time.Time
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:     deps.Store,
		head:      deps.Head,
		watermark: deps.Watermark,
		logger:    logger.Named("api"),
		now:       time.Now,
	}

	app := fiber.New(fiber.Config{
		AppName:               "token mirror",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			s.logger.Error("panic in http handler", zap.Any("panic", e), zap.String("path", c.Path()))
		},
	}))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Get("/token/overview", s.getOverview)
	api.Get("/token/mints", s.getMints)
	api.Get("/token/burns", s.getBurns)
	api.Get("/token/transfers", s.getTransfers)
	api.Get("/token/blacklist", s.getBlacklist)
	api.Get("/token/snapshots", s.getSnapshots)
	api.Get("/system/health", s.getHealth)

	s.app = app
	return s
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	s.logger.Error("api request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
}
