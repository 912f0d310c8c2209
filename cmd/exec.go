package cmd

import (
	"context"
	"fmt"
	"log"

	"mentorhub/config"
	"mentorhub/internal/genai"
	"mentorhub/internal/handlers"
	"mentorhub/internal/services"
	"mentorhub/internal/store"
	"mentorhub/internal/store/memstore"
	"mentorhub/internal/store/pbstore"
	"mentorhub/internal/store/pgstore"
	_ "mentorhub/migrations"
	"mentorhub/monitoring"
	"mentorhub/security"
	"mentorhub/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go/v7"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor()
	}

	st, closeStore, err := openStore(ctx, app, cfg)
	if err != nil {
		redisClient.Close()
		return err
	}

	generator, err := newGenerator(cfg, monitor)
	if err != nil {
		closeStore()
		redisClient.Close()
		return err
	}

	// Initialize services
	notifier := newNotifier(cfg)
	registrations := services.NewRegistrationService(st, notifier, monitor)
	registrations.SetWaitlist(services.NewWaitlist(redisClient, monitor))
	bookings := services.NewBookingService(st, notifier, monitor, cfg.BookingMaxDuration)
	catalog := services.NewCatalogService(st)
	assistant := services.NewAssistantService(generator, redisClient, cfg.AssistantCacheTTL, monitor)
	limiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute, monitor)

	// Initialize handlers
	routes := handlers.Routes{
		Events:      handlers.NewRegistrationHandler(registrations, services.KindEvent),
		StudyGroups: handlers.NewRegistrationHandler(registrations, services.KindStudyGroup),
		Bookings:    handlers.NewBookingHandler(bookings),
		Catalog:     handlers.NewCatalogHandler(catalog),
		Assistant:   handlers.NewAssistantHandler(assistant),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"redis": func(ctx context.Context) error { return utils.RedisHealthCheck(ctx, redisClient) },
			"store": func(ctx context.Context) error {
				_, err := st.Select(ctx, store.TableEvents, store.Filter{"id": "health-probe"})
				return err
			},
		}),
		RateLimit: limiter.Middleware(),
	}
	if cfg.EnableMetrics {
		routes.Metrics = promhttp.Handler()
	}

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		routes.Register(e.Router)
		log.Printf("Server routes registered (store=%s)", cfg.StoreDriver)
		return e.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		log.Println("Shutdown signal received, cleaning up...")
		if err := closeStore(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing redis: %v", err)
		}
		return e.Next()
	})

	return app.Start()
}

// openStore selects the backend named by STORE_DRIVER.
func openStore(ctx context.Context, app core.App, cfg *config.Config) (store.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pg := pgstore.Open(cfg.PostgresDSN)
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		return pg, pg.Close, nil
	case config.DriverMemory:
		log.Println("Using in-memory store; data is lost on restart")
		return memstore.New(), noop, nil
	default:
		return pbstore.New(app), noop, nil
	}
}

func newNotifier(cfg *config.Config) services.Notifier {
	if !cfg.PubNubEnabled() {
		log.Println("PubNub keys not set; notifications disabled")
		return services.NopNotifier{}
	}
	pnConfig := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey
	return services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
}

// newGenerator returns a nil Generator when no model is configured; the
// assistant then serves its static fallbacks.
func newGenerator(cfg *config.Config, monitor *monitoring.Monitor) (services.Generator, error) {
	if !cfg.AssistantEnabled() {
		log.Println("GENAI_API_KEY not set; assistant uses static fallbacks")
		return nil, nil
	}
	client, err := genai.New(genai.Config{
		BaseURL: cfg.GenAIBaseURL,
		APIKey:  cfg.GenAIAPIKey,
		Model:   cfg.GenAIModel,
		Timeout: cfg.GenAITimeout,
		Monitor: monitor,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
