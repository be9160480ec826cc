package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"formdesk/internal/api"
	"formdesk/internal/config"
	"formdesk/internal/forms"
	"formdesk/internal/listing"
	"formdesk/internal/records"
	"formdesk/internal/store"
	"formdesk/internal/web"
)

func main() {
	ctx := context.Background()

	// 1. Load environment and config
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db driver: %s)", cfg.Server.Port, cfg.Database.Driver)

	// 2. Connect to database and create tables
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap tables: %v", err)
	}
	log.Println("Database ready")

	// 3. Load form templates and start the reload-on-write watcher
	templates, err := forms.Open(cfg.Templates.Dir)
	if err != nil {
		log.Fatalf("Failed to load templates from %s: %v", cfg.Templates.Dir, err)
	}
	defer templates.Close()
	log.Printf("Loaded %d templates from %s", len(templates.All()), cfg.Templates.Dir)

	// 4. Create Fiber app
	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 5. Register REST API routes
	engine := listing.New(db)
	api.RegisterRoutes(app, api.NewHandler(engine), cfg.APIKey)

	// 6. Register server-rendered routes
	repo := records.NewRepository(db)
	web.RegisterRoutes(app, web.NewHandler(templates, repo, cfg.Uploads.MaxFileSize))

	// 7. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *listing.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(listing.ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(listing.ErrorResponse{
		Error: &listing.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
