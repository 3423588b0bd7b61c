package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agrisight/farm-portal/farm-portal-backend/internal/advisory"
	"agrisight/farm-portal/farm-portal-backend/internal/agronomy"
	"agrisight/farm-portal/farm-portal-backend/internal/agronomy/store"
	"agrisight/farm-portal/farm-portal-backend/internal/auth"
	"agrisight/farm-portal/farm-portal-backend/internal/config"
	"agrisight/farm-portal/farm-portal-backend/internal/market"
	"agrisight/farm-portal/farm-portal-backend/internal/notifications"
	"agrisight/farm-portal/farm-portal-backend/internal/notifications/websocket"
	"agrisight/farm-portal/farm-portal-backend/internal/settings"
	"agrisight/farm-portal/farm-portal-backend/pkg/storage"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Warn("Failed to load config file, using environment variables", zap.Error(err))
		cfg, _ = config.LoadConfig("")
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Connect to database. The portal runs on Postgres; the sqlite
	// driver serves local runs without a database server.
	var db *gorm.DB
	var marketDB *sqlx.DB
	switch cfg.Database.Driver {
	case "sqlite":
		path := cfg.Database.SQLitePath
		if path == "" {
			path = "agrisight.db"
		}
		logger.Info("Opening SQLite database", zap.String("path", path))
		db, err = store.OpenSQLite(path)
		if err != nil {
			logger.Fatal("Failed to open database", zap.Error(err))
		}
		marketDB, err = sqlx.Connect("sqlite", path)
	default:
		dbURL := cfg.Database.GetDatabaseURL()
		logger.Info("Connecting to database", zap.String("url", dbURL))
		db, err = store.OpenPostgres(dbURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		marketDB, err = sqlx.Connect("postgres", dbURL)
	}
	if err != nil {
		logger.Fatal("Failed to connect to market database", zap.Error(err))
	}
	defer marketDB.Close()

	// Migrate and load the crop catalog that parameterizes the engine
	catalogStore := store.New(db)
	if err := catalogStore.AutoMigrate(); err != nil {
		logger.Fatal("Failed to migrate catalog tables", zap.Error(err))
	}
	if err := advisory.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate advisory tables", zap.Error(err))
	}
	if seeded, err := catalogStore.SeedDefaults(ctx); err != nil {
		logger.Fatal("Failed to seed crop catalog", zap.Error(err))
	} else if seeded > 0 {
		logger.Info("Seeded crop catalog", zap.Int("crops", seeded))
	}
	catalog, err := catalogStore.LoadCatalog(ctx)
	if err != nil {
		logger.Fatal("Failed to load crop catalog", zap.Error(err))
	}
	engine := agronomy.NewEngine(catalog)

	// Optional AWS integrations. Each switches off independently when
	// its resource name is absent.
	var exportStorage storage.S3Client
	if cfg.AWS.S3Bucket != "" {
		exportStorage, err = storage.NewS3Client(ctx, storage.S3Options{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.Endpoint,
		})
		if err != nil {
			logger.Fatal("Failed to initialize S3 client", zap.Error(err))
		}
	} else {
		logger.Warn("EXPORT_S3_BUCKET not set, report exports are disabled")
	}

	var emailChannel notifications.EmailSender
	var topicChannel notifications.TopicPublisher
	if cfg.AWS.SESSender != "" || cfg.AWS.SNSTopicARN != "" {
		awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			logger.Fatal("Failed to load AWS config", zap.Error(err))
		}
		if cfg.AWS.SESSender != "" {
			emailChannel = notifications.NewSESChannel(sesv2.NewFromConfig(awsCfg), cfg.AWS.SESSender)
		}
		if cfg.AWS.SNSTopicARN != "" {
			topicChannel = notifications.NewSNSChannel(sns.NewFromConfig(awsCfg), cfg.AWS.SNSTopicARN)
		}
	}

	// Initialize services
	authService, err := auth.NewService(db, cfg.Auth, logger)
	if err != nil {
		logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}

	settingsService, err := settings.NewService(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize settings service", zap.Error(err))
	}

	hub := websocket.NewManager(logger)
	notificationsService, err := notifications.NewService(db, hub, emailChannel, topicChannel, authService, settingsService, logger)
	if err != nil {
		logger.Fatal("Failed to initialize notification service", zap.Error(err))
	}

	marketRepo := market.NewPostgresRepository(marketDB)
	if err := marketRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure market price schema", zap.Error(err))
	}
	marketService := market.NewService(marketRepo, engine)
	marketHandler := market.NewHandler(marketService, logger)

	refresher := market.NewRefresher(marketService, catalog, notificationsService, market.RefresherConfig{
		Cron:        cfg.Worker.ForecastCron,
		HorizonDays: cfg.Worker.ForecastHorizonDays,
	}, logger)
	if err := refresher.Start(); err != nil {
		logger.Fatal("Failed to start forecast refresher", zap.Error(err))
	}

	advisoryRepo := advisory.NewRepository(db)
	advisoryService := advisory.NewService(advisoryRepo, engine, marketService, notificationsService, exportStorage, cfg.AWS.S3Bucket)
	advisoryHandler := advisory.NewHandler(advisoryService, logger)

	notificationsHandler := notifications.NewHandler(notificationsService, logger)
	settingsHandler := settings.NewHandler(settingsService, logger)
	authHandler := auth.NewHandler(authService, logger)

	// Setup Router
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Without a signing secret every request runs as the demo farmer,
	// which keeps local setups to a single command.
	requireAuth := auth.RequireAuth(authService)
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, requests run as the demo farmer")
		requireAuth = func(c *gin.Context) { c.Next() }
	}

	// Register Routes
	api := router.Group("/api/v1")
	auth.RegisterRoutes(api, authHandler, requireAuth)

	protected := api.Group("")
	protected.Use(requireAuth)
	{
		advisoryHandler.RegisterRoutes(protected)
		marketHandler.RegisterRoutes(protected)
		notificationsHandler.RegisterRoutes(protected)
		settingsHandler.RegisterRoutes(protected)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}
	refresher.Stop()
	if err := notificationsService.Close(); err != nil {
		logger.Warn("Failed to close notification hub", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// loadAWSConfig resolves shared AWS credentials for the SES and SNS
// clients. Static keys win over the default provider chain.
func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, loadOpts...)
}
