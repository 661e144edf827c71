package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/quotakit/pkg/archive"
	"github.com/dmitrymomot/quotakit/pkg/billing"
	"github.com/dmitrymomot/quotakit/pkg/catalog"
	"github.com/dmitrymomot/quotakit/pkg/config"
	"github.com/dmitrymomot/quotakit/pkg/httpserver"
	"github.com/dmitrymomot/quotakit/pkg/identity"
	"github.com/dmitrymomot/quotakit/pkg/lifecycle"
	"github.com/dmitrymomot/quotakit/pkg/logger"
	"github.com/dmitrymomot/quotakit/pkg/mongo"
	"github.com/dmitrymomot/quotakit/pkg/quota"
	"github.com/dmitrymomot/quotakit/svc/webhook"
)

type appConfig struct {
	DatabaseName string `env:"MONGODB_DATABASE" envDefault:"quotakit"`

	// TiersFile, when set, loads the plan catalog from a YAML file instead
	// of the tiers collection.
	TiersFile string `env:"TIERS_FILE"`

	Log     logger.Config
	HTTP    httpserver.Config
	Mongo   mongo.Config
	Webhook webhook.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Log, logger.WithAttr(slog.String("app", "quotakit")))
	slog.SetDefault(log)

	ctx := context.Background()

	db, err := mongo.NewWithDatabase(ctx, cfg.Mongo, cfg.DatabaseName)
	if err != nil {
		log.ErrorContext(ctx, "failed to connect to mongodb", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.ErrorContext(ctx, "failed to disconnect from mongodb", slog.Any("error", err))
		}
	}()

	var tiersSource catalog.Source = catalog.NewMongoSource(db)
	if cfg.TiersFile != "" {
		tiersSource = catalog.NewYAMLFileSource(cfg.TiersFile)
	}

	cat, err := catalog.NewService(ctx, tiersSource)
	if err != nil {
		log.ErrorContext(ctx, "failed to load plan catalog", slog.Any("error", err))
		os.Exit(1)
	}

	archives := archive.NewMongoStore(db)
	if err := archives.EnsureIndexes(ctx); err != nil {
		log.ErrorContext(ctx, "failed to ensure archive indexes", slog.Any("error", err))
		os.Exit(1)
	}

	reconciler := lifecycle.New(
		cat,
		identity.NewMongoStore(db),
		quota.NewMongoStore(db),
		archives,
		billing.NewLedger(billing.NewMongoStore(db), billing.WithLedgerLogger(log)),
		lifecycle.WithLogger(log),
	)

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log, mongo.Healthcheck(db.Client())))
	r.Mount("/", webhook.NewHandler(reconciler, cfg.Webhook, webhook.WithLogger(log)))

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.ErrorContext(ctx, "server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}
