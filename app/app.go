package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"pos-print-service/app/controller"
	"pos-print-service/app/router"
	"pos-print-service/config"
	"pos-print-service/db"
	"pos-print-service/driver"
	"pos-print-service/mq"
	"pos-print-service/repository"
	"pos-print-service/service"
	"pos-print-service/ticket"
	"pos-print-service/utils"
)

// App is the wired print service
type App struct {
	Config  *config.Config
	Handler http.Handler

	bridge   *driver.BridgeConnection
	browser  *driver.BrowserDriver
	mq       *mq.Client
	consumer *mq.JobConsumer
}

// Initialize initializes the application
func Initialize(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	fallback, err := service.ParseFallback(cfg.Fallback)
	if err != nil {
		return nil, err
	}

	// Initialize database connection
	if err := db.InitDB(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &App{Config: cfg}

	// Initialize repositories
	settingsRepo := repository.NewSettingsRepository()
	printLogRepo := repository.NewPrintLogRepository()

	clock := utils.RealClock{}
	store := service.NewSettingsStore(settingsRepo.FetchSettings, clock, cfg.SettingsTTL)
	classifier := service.NewClassifier(service.SubstringMatcher{}, service.ParseTieBreak(cfg.Profile.TieBreak), cfg.Profile.DefaultKitchenCategories)

	// Drivers
	network := driver.NewNetworkDriver(cfg.Profile.NetworkEndpoints, cfg.NetworkAttemptTimeout, cfg.NetworkProbeDeadline)
	a.bridge = driver.NewBridgeConnection(cfg.BridgeURL)
	bridge := driver.NewBridgeDriver(a.bridge, cfg.NetworkProbeDeadline)
	chromePath := driver.DetectChromePath(cfg.ChromePath)
	if chromePath == "" {
		log.Printf("⚠️  Chrome not found, browser fallback will use the chromedp default lookup")
	}
	a.browser = driver.NewBrowserDriver(driver.NewChromeSurface(cfg.SpoolDir, chromePath), clock, cfg.BrowserCopyStagger)

	attemptLogger := service.MultiAttemptLogger{
		service.StdAttemptLogger{},
		service.NewRepositoryAttemptLogger(printLogRepo),
	}

	// Optional RabbitMQ: attempt events out, print jobs in
	if cfg.RabbitMQURL != "" {
		a.mq, err = mq.Dial(cfg.RabbitMQURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := a.mq.DeclareFanout(cfg.PrintAttemptsExchange); err != nil {
			a.Close()
			return nil, err
		}
		if err := a.mq.DeclareJobQueue(cfg.PrintJobsQueue); err != nil {
			a.Close()
			return nil, err
		}
		attemptLogger = append(attemptLogger, mq.NewAttemptPublisher(a.mq, cfg.PrintAttemptsExchange))
		log.Printf("✓ RabbitMQ connected: jobs=%s attempts=%s", cfg.PrintJobsQueue, cfg.PrintAttemptsExchange)
	}

	// Optional Drive archive for fallback documents
	var archive service.DocumentArchive
	if cfg.DriveArchiveFolderID != "" {
		driveArchive, err := service.NewDriveArchive(ctx, cfg.GoogleCredentialsPath, cfg.DriveArchiveFolderID)
		if err != nil {
			a.Close()
			return nil, err
		}
		archive = driveArchive
		log.Printf("✓ Fallback documents archived to Drive folder %s", cfg.DriveArchiveFolderID)
	}

	printService := service.NewPrintService(service.PrintServiceDeps{
		Settings:   store,
		Classifier: classifier,
		Mode:       cfg.Mode,
		Network:    network,
		Bridge:     bridge,
		Browser:    a.browser,
		Logger:     attemptLogger,
		Archive:    archive,
		Logos:      service.NewLogoService(nil),
		Ticket:     ticket.Options{Width: cfg.Profile.LineWidth, Currency: cfg.CurrencySymbol},
		Clock:      clock,

		DefaultFallback: fallback,
	})

	if a.mq != nil {
		a.consumer = mq.NewJobConsumer(a.mq, cfg.PrintJobsQueue, "pos-print-service", 1, service.NewPrintJobHandler(printService))
	}

	// Create controllers
	controllers := &router.Controllers{
		Print:    controller.NewPrintController(printService),
		Settings: controller.NewSettingsController(settingsRepo, printLogRepo, store),
		Archive:  controller.NewArchiveController(archive),
	}

	// Setup routes using standard http router
	mux := http.NewServeMux()
	router.SetupRoutes(mux, controllers, cfg.APITokens)
	a.Handler = mux

	log.Printf("✓ Print service ready: mode=%s, %d network endpoints", cfg.Mode, len(cfg.Profile.NetworkEndpoints))
	return a, nil
}

// RunConsumer consumes queued print jobs until ctx is done. It returns at once when RabbitMQ is not configured.
func (a *App) RunConsumer(ctx context.Context) error {
	if a.consumer == nil {
		return nil
	}
	return a.consumer.Run(ctx)
}

// Close waits for scheduled browser prints and releases connections
func (a *App) Close() {
	if a.browser != nil {
		a.browser.Wait()
	}
	if a.bridge != nil {
		a.bridge.Close()
	}
	a.mq.Close()
	if err := db.CloseDB(); err != nil {
		log.Printf("⚠️  Error closing database: %v", err)
	}
}
