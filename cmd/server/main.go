package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/carcino/internal/catalog"
	"github.com/example/carcino/internal/checkout"
	"github.com/example/carcino/internal/config"
	"github.com/example/carcino/internal/database"
	"github.com/example/carcino/internal/routes"
	"github.com/example/carcino/internal/services"
	"github.com/example/carcino/internal/session"
	"github.com/example/carcino/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.NeedsDatabase() {
		database.Connect(cfg.DatabaseURL)
	}

	backend, closeBackend := openBackend(cfg)
	defer closeBackend()

	registry := store.NewRegistry(backend, cfg.SessionTTL)
	defer registry.Close()

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	var identity services.IdentityProvider
	if cfg.UsesSupabase() {
		identity = services.NewSupabaseIdentity(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	} else {
		identity = services.NewLocalIdentity(database.DB(), cfg.JWTSecret, cfg.TokenExpires)
	}

	events := services.NewOrderEventPublisher(cfg.KafkaOrderTopic, cfg.KafkaBrokers...)
	defer func() {
		if err := events.Close(); err != nil {
			log.Printf("kafka writer close: %v", err)
		}
	}()

	app := routes.NewApp(cfg)
	routes.Register(app, routes.Dependencies{
		Config:     cfg,
		Catalog:    cat,
		Sessions:   session.NewManager(registry, checkout.NewSimulatedGateway()),
		Identity:   identity,
		Classifier: services.NewClassifierClient(cfg.ClassifierURL),
		Search:     services.NewSearchClient(cfg.SearchURL),
		Geocoder:   services.NewGeocoderClient(cfg.GeocoderURL),
		Notifier: &services.OrderNotifier{
			Telegram: services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat),
			Mailer:   services.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom),
			Events:   events,
		},
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on :%s (store: %s)", cfg.AppPort, cfg.StoreDriver)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

// openBackend builds the session store backend selected by STORE_DRIVER.
func openBackend(cfg *config.Config) (store.Backend, func()) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		client, err := store.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		return store.NewRedisBackend(client, cfg.SessionTTL), func() { _ = client.Close() }

	case config.StorePostgres:
		backend := store.NewGormBackend(database.DB(), cfg.SessionTTL)
		ctx, cancel := context.WithCancel(context.Background())
		go purgeExpired(ctx, backend)
		return backend, cancel

	case config.StoreSQLite:
		backend, err := store.OpenSQLite(cfg.SQLitePath, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		return backend, func() { _ = backend.Close() }

	default:
		return store.NewMemoryBackend(), func() {}
	}
}

func purgeExpired(ctx context.Context, backend *store.GormBackend) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n, err := backend.PurgeExpired(ctx); err != nil {
				log.Printf("[Store] purge failed: %v", err)
			} else if n > 0 {
				log.Printf("[Store] purged %d expired entries", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
