package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"

	"github.com/triagehub/triagehub/internal/config"
	"github.com/triagehub/triagehub/internal/database"
	"github.com/triagehub/triagehub/internal/handlers"
	"github.com/triagehub/triagehub/internal/impact"
	"github.com/triagehub/triagehub/internal/notify"
	"github.com/triagehub/triagehub/internal/orchestrator"
	"github.com/triagehub/triagehub/internal/providers"
	"github.com/triagehub/triagehub/internal/reports"
	"github.com/triagehub/triagehub/internal/similarity"
	"github.com/triagehub/triagehub/internal/tickets/adapters"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting TriageHub...")

	// Initialize database connection
	if err := database.Connect(cfg.DatabaseURL, logger.Warn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Database connection established")

	// Run database migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize default database records
	if err := database.InitializeDefaults(); err != nil {
		log.Fatalf("Failed to initialize database defaults: %v", err)
	}

	// Apply the optional triage policy file over the stored settings
	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		log.Fatalf("Failed to load triage policy: %v", err)
	}
	settings, err := database.GetOrCreateTriageSettings(database.GetDB())
	if err != nil {
		log.Fatalf("Failed to load triage settings: %v", err)
	}
	applyPolicy(settings, policy)
	if err := database.UpdateTriageSettings(database.GetDB(), settings); err != nil {
		log.Fatalf("Failed to save triage settings: %v", err)
	}
	if err := seedReferenceData(policy); err != nil {
		log.Fatalf("Failed to seed reference data: %v", err)
	}

	store := database.NewIssueStore(database.GetDB())

	// Providers are optional: without an API key the matcher runs in
	// keyword-fallback mode and reports come from the template.
	var embedding similarity.EmbeddingProvider
	var content reports.ContentProvider
	if cfg.ProviderAPIKey != "" {
		opts := providers.Options{
			APIKey:         cfg.ProviderAPIKey,
			BaseURL:        cfg.ProviderBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			ChatModel:      cfg.ChatModel,
			Timeout:        cfg.ProviderTimeout,
		}
		embedding = providers.NewEmbeddingClient(opts)
		content = providers.NewCompletionClient(opts)
		log.Printf("Embedding and generative providers configured")
	} else {
		log.Printf("No provider API key set; running with keyword matching and template reports")
	}

	// Report outbox
	var queue reports.Queue
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}
		queue = reports.NewRedisQueue(redis.NewClient(redisOpts), cfg.ReportQueueKey)
		log.Printf("Report outbox backed by Redis")
	} else {
		queue = reports.NewMemoryQueue(0)
		log.Printf("Report outbox backed by in-memory queue")
	}

	// Triage engine
	analyzer := similarity.NewAnalyzer(embedding)
	matcher := similarity.NewMatcher(analyzer, embedding)
	aggregator := impact.NewAggregator(store)
	engine := orchestrator.New(store, matcher, aggregator, queue, embedding, policyTaxonomy(policy))

	// Report synthesis worker
	synthesizer := reports.NewSynthesizer(store, content)
	var notifier reports.Notifier
	if slackNotifier := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel); slackNotifier != nil {
		notifier = slackNotifier
		log.Printf("Slack report notifications enabled")
	}
	worker := reports.NewWorker(queue, synthesizer, notifier, settings.MaxReportAttempts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	// Initialize ticket handler and register source adapters
	ticketHandler := handlers.NewTicketHandler(engine)
	ticketHandler.RegisterAdapter(adapters.NewZendeskAdapter())
	ticketHandler.RegisterAdapter(adapters.NewFreshdeskAdapter())
	ticketHandler.RegisterAdapter(adapters.NewIntercomAdapter())

	// Initialize HTTP handlers
	httpHandler := handlers.NewHTTPHandler(ticketHandler)
	apiHandler := handlers.NewAPIHandler(store, synthesizer)

	// Set up HTTP server routes
	mux := http.NewServeMux()
	httpHandler.SetupRoutes(mux)
	apiHandler.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: mux,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("Ticket webhook endpoint: http://localhost:%d/webhook/ticket/{source_type}", cfg.HTTPPort)
	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("API base URL: http://localhost:%d/api", cfg.HTTPPort)

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, cleaning up...")
	cancel()

	if err := httpServer.Close(); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
	if err := queue.Close(); err != nil {
		log.Printf("Error closing report queue: %v", err)
	}
	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	log.Println("Shutdown complete")
}

// applyPolicy copies non-zero policy knobs onto the stored settings
func applyPolicy(settings *database.TriageSettings, policy *config.Policy) {
	if policy.CandidatePoolSize > 0 {
		settings.CandidatePoolSize = policy.CandidatePoolSize
	}
	if policy.MatchThreshold > 0 {
		settings.MatchThreshold = policy.MatchThreshold
	}
	if policy.AutoReportMemberThreshold > 0 {
		settings.AutoReportMemberThreshold = policy.AutoReportMemberThreshold
	}
	if policy.MaxReportAttempts > 0 {
		settings.MaxReportAttempts = policy.MaxReportAttempts
	}
}

// seedReferenceData upserts the brand and location rows the policy carries
func seedReferenceData(policy *config.Policy) error {
	if len(policy.Brands) == 0 && len(policy.Locations) == 0 {
		return nil
	}

	brands := make([]database.Brand, 0, len(policy.Brands))
	for _, b := range policy.Brands {
		brands = append(brands, database.Brand{BrandID: b.BrandID, Name: b.Name})
	}
	locations := make([]database.Location, 0, len(policy.Locations))
	for _, l := range policy.Locations {
		locations = append(locations, database.Location{
			LocationID:   l.LocationID,
			BrandID:      l.BrandID,
			Name:         l.Name,
			TotalMembers: l.TotalMembers,
		})
	}

	log.Printf("Seeding reference data: %d brands, %d locations", len(brands), len(locations))
	return database.SeedReferenceData(database.GetDB(), brands, locations)
}

// policyTaxonomy converts the policy taxonomy, falling back to the default
func policyTaxonomy(policy *config.Policy) orchestrator.Taxonomy {
	if len(policy.Taxonomy) == 0 {
		return orchestrator.DefaultTaxonomy
	}
	return orchestrator.Taxonomy(policy.Taxonomy)
}
