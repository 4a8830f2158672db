package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"fastadmin/internal/admin"
	"fastadmin/internal/auth"
	"fastadmin/internal/config"
	"fastadmin/internal/engine"
	"fastadmin/internal/forms"
	"fastadmin/internal/schema"
	"fastadmin/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	logrus.WithFields(logrus.Fields{
		"port": cfg.Server.Port,
		"db":   fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name),
	}).Info("config loaded")

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	logrus.Info("database connected")

	if err := db.Bootstrap(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to bootstrap auth tables")
	}
	logrus.Info("auth tables ready")

	reg := admin.NewRegistry()
	admin.RegisterBuiltins(reg)

	source := schema.NewPostgresSource(db)
	for _, name := range cfg.Admin.Tables {
		table, err := source.Describe(ctx, name)
		if err != nil {
			logrus.WithError(err).WithField("table", name).Fatal("failed to introspect configured table")
		}
		reg.Register(table, admin.WithPerPage(cfg.Admin.PerPage))
	}
	logrus.WithField("tables", len(reg.Tables())).Info("registry loaded")

	sessions := auth.NewSessionStore(db, time.Duration(cfg.Auth.SessionTTLDays)*24*time.Hour)
	authSvc := auth.NewService(db)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Principal resolution runs on every route; authorization happens
	// per-handler.
	app.Use(auth.Middleware(sessions, cfg.Auth.JWTSecret))

	authHandler := auth.NewHandler(authSvc, sessions, cfg.Auth.JWTSecret)
	auth.RegisterRoutes(app, authHandler)

	eng := engine.New(db, reg)
	formBuilder := forms.NewBuilder(reg, forms.NewPostgresChoices(db))
	engineHandler := engine.NewHandler(eng, reg, formBuilder)
	engine.RegisterAdminRoutes(app, engineHandler)

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go sessions.RunSweeper(sweepCtx, time.Duration(cfg.Auth.SweepIntervalMin)*time.Minute)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logrus.WithField("addr", addr).Info("starting server")
	logrus.Fatal(app.Listen(addr))
}

func errorHandler(c *fiber.Ctx, err error) error {
	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}

	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		return c.Status(code).JSON(engine.ErrorResponse{
			Error: engine.NewAppError("INTERNAL_ERROR", code, fiberErr.Message),
		})
	}

	logrus.WithError(err).Error("unhandled error")
	return c.Status(code).JSON(engine.ErrorResponse{Error: engine.InternalError()})
}
