package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creatorstation/editorial/internal/appcron"
	"github.com/creatorstation/editorial/internal/config"
	"github.com/creatorstation/editorial/internal/db"
	"github.com/creatorstation/editorial/internal/editorial"
	"github.com/creatorstation/editorial/internal/engine"
	"github.com/creatorstation/editorial/internal/imagery"
	"github.com/creatorstation/editorial/internal/logging"
	"github.com/creatorstation/editorial/internal/media"
	"github.com/creatorstation/editorial/internal/news"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/publish"
	"github.com/creatorstation/editorial/internal/store"
	"github.com/creatorstation/editorial/pkg/web"
	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := logging.NewLogger(os.Getenv("LOG_LEVEL"))
	config.LoadEnv(logger)
	cfg := config.Load()
	logger = logging.NewLogger(cfg.LogLevel)

	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		logger.WithError(err).Fatal("failed to load editorial policy")
	}

	conn, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	if err := db.Migrate(conn); err != nil {
		logger.WithError(err).Fatal("failed to migrate")
	}
	st := store.NewGorm(conn)

	var objects media.ObjectStore
	if cfg.MongoURI == "" {
		logger.Warn("MONGO_URI not set, synthesized images are kept in memory")
		objects = media.NewMemoryStore()
	} else {
		mdb, err := db.ConnectMongo(context.Background(), cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to mongo")
		}
		defer mdb.Client().Disconnect(context.Background())
		grid, err := media.NewGridFSStore(mdb, "editorial_images")
		if err != nil {
			logger.WithError(err).Fatal("failed to open gridfs bucket")
		}
		objects = grid
	}

	arbiter := engine.NewArbiter(
		engine.NewBackend(cfg.Primary),
		engine.NewBackend(cfg.Secondary),
		cfg.PreferredEngine, cfg.EngineTimeout, pol, logger,
	)
	if !arbiter.Configured() {
		logger.Warn("no generative backend configured, runs will fail with no_backend_configured")
	}

	selector := news.NewSelector(st, pol, logger, news.SelectorOptions{
		SearchURL:   cfg.NewsSearchURL,
		SearchLang:  cfg.NewsSearchLang,
		SiteBaseURL: cfg.PublicSiteBaseURL,
	})

	cascade := imagery.NewCascade(
		imagery.NewCommonsSearch(resty.New().SetTimeout(10*time.Second), cfg.MediaSearchURL, pol),
		imagery.NewSynthesizer(arbiter, web.NewFetcher(20*time.Second), objects, cfg.PublicMediaBaseURL),
		cfg.PlaceholderBaseURL,
		logger,
	)

	dispatcher := publish.NewDispatcher(nil, cfg.DispatchWebhookURL, cfg.DispatchWebhookToken, logger, publish.DispatcherOptions{})
	dispatcher.Start()
	publisher := publish.NewPublisher(st, dispatcher, pol, cfg.PublicSiteBaseURL, logger)

	pipeline := editorial.NewPipeline(st, selector, arbiter, cascade, publisher, pol, logger)

	loc, err := time.LoadLocation(cfg.EditorialTimezone)
	if err != nil {
		logger.WithError(err).Warnf("unknown timezone %q, using UTC", cfg.EditorialTimezone)
		loc = time.UTC
	}
	scheduler, err := appcron.NewScheduler(cfg.EditorialCron, loc, st, pipeline, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to schedule editorial cycle")
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          3 * time.Minute,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	media.NewController(objects, logger).MountController(app.Group("/media"))

	group := app.Group("/editorial", editorial.Guard(cfg.SharedSecret, logger))
	editorial.NewController(pipeline, logger).MountController(group)
	scheduler.MountController(group)

	go func() {
		logger.WithField("port", cfg.Port).Info("editorial engine listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("scheduler shutdown")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("dispatcher shutdown")
	}
}
