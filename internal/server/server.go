package server

import (
	"errors"
	"strings"
	"time"

	"wastetracker/internal/audit"
	"wastetracker/internal/auth"
	"wastetracker/internal/config"
	"wastetracker/internal/logger"
	"wastetracker/internal/models"
	"wastetracker/internal/reports"
	"wastetracker/internal/store"
	"wastetracker/internal/waste"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bodyLimit = 16 << 20

// New builds the HTTP app over st.
func New(cfg *config.Config, st store.Store) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "wastetracker",
		BodyLimit:    bodyLimit,
		JSONEncoder:  sonic.ConfigStd.Marshal,
		JSONDecoder:  sonic.ConfigStd.Unmarshal,
		ErrorHandler: errorHandler,
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))

	h := &waste.Handlers{
		Log:     st,
		Trail:   st,
		Reports: reports.NewService(st),
	}

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(st))
	api.Post("/auth/login", auth.LoginHandler(cfg, st))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))
	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Get("/auth/me", auth.MeHandler(st))
	protected.Post("/users", adminOnly, auth.CreateOperatorHandler(st))

	// Waste log
	protected.Post("/waste-entries", h.CreateWasteEntryHandler())
	protected.Get("/waste-entries", h.ListWasteEntriesHandler())
	protected.Get("/waste-entries/export.csv", h.ExportCSVHandler())
	protected.Post("/waste-entries/import", h.ImportHandler())
	protected.Delete("/waste-entries", adminOnly, h.ResetLogHandler())

	// Reports
	rep := protected.Group("/reports")
	rep.Get("/summary", h.SummaryHandler())
	rep.Get("/top", h.TopHandler())
	rep.Get("/grouped", h.GroupedHandler())
	rep.Get("/trend", h.TrendHandler())
	rep.Get("/recommendations", h.RecommendationsHandler())
	rep.Get("/export.xlsx", h.ExportWorkbookHandler())

	protected.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler(st))

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
		})
	}
	logger.Errorf(c.UserContext(), "unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "unexpected server error",
	})
}

// requestLogger tags each request with an id and a scoped logger, then logs the outcome.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)

		l := logger.L().With(zap.String("request_id", id))
		c.SetUserContext(logger.ToContext(c.UserContext(), l))

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				status = e.Code
			}
		}
		l.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}

