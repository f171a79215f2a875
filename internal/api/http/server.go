package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/vaccine-scheduler/internal/api/http/handlers"
	"github.com/spec-kit/vaccine-scheduler/internal/observability"
	"github.com/spec-kit/vaccine-scheduler/internal/persistence"
)

// OpsDependencies wires the ops listener.
type OpsDependencies struct {
	ServiceName string
	Version     string
	Store       handlers.Pinger
	Redis       *persistence.Redis
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewOpsApp builds the fiber app serving health probes and metrics.
func NewOpsApp(deps OpsDependencies) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               deps.ServiceName,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, deps.Metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler(deps.ServiceName, deps.Version, deps.Store, deps.Redis),
		Metrics: deps.Metrics,
	})
	return app
}

// StartOps listens on addr in the background. Listen errors are logged.
func StartOps(app *fiber.App, addr string, logger *zap.Logger) {
	go func() {
		logger.Info("ops listener starting", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Error("ops listener stopped", zap.Error(err))
		}
	}()
}
