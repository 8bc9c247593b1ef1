package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"checklistapi/config"
	"checklistapi/jobs"
	"checklistapi/middleware"
	"checklistapi/routes"
	"checklistapi/services"
	"checklistapi/utils"
)

func main() {
	// Load .env before config.LoadConfig so it can see the values
	loadEnvFile()

	config.LoadConfig()
	cfg := config.AppConfig
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	verifier := newVerifier(ctx, cfg)

	var b2Service *services.B2Service
	if cfg.BackupEnabled() {
		var err error
		b2Service, err = services.NewB2Service(ctx, cfg.B2ApplicationKeyID, cfg.B2ApplicationKey, cfg.B2BucketName)
		if err != nil {
			utils.LogError("Failed to initialize B2 service, snapshots disabled", err)
			b2Service = nil
		}
	}

	serviceContainer := routes.NewServiceContainer(store, verifier, b2Service)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	var router *gin.Engine
	if gin.Mode() == gin.ReleaseMode {
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}

	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.MetricsMiddleware())
	routes.SetupRoutesWithContainer(router, serviceContainer)

	// Start the snapshot job
	if serviceContainer.B2Service != nil && cfg.SnapshotInterval > 0 {
		job := jobs.NewSnapshotJob(store, serviceContainer.B2Service, cfg.SnapshotInterval)
		jobs.StartSnapshotJob(ctx, job)
		utils.LogInfo("Started snapshot job", "interval", cfg.SnapshotInterval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Starting checklist API server", "port", cfg.Port, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogFatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := config.CreateContext(30 * time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Server shutdown failed", err)
	}
	utils.LogInfo("Server stopped")
}

// openStore builds the configured checklist store. Failures are fatal.
func openStore(ctx context.Context, cfg *config.Config) (services.ChecklistStore, func()) {
	if cfg.StoreBackend == config.StoreBackendMongo {
		connectCtx, cancel := config.CreateContext(10 * time.Second)
		defer cancel()

		mongoClient, err := mongo.Connect(connectCtx, services.NewMongoClientOptions(cfg.MongoURI))
		if err != nil {
			utils.LogFatal("Failed to connect to MongoDB", err)
		}

		// Verify MongoDB connection
		if err = mongoClient.Ping(connectCtx, nil); err != nil {
			utils.LogFatal("Failed to ping MongoDB", err)
		}
		utils.LogInfo("Connected to MongoDB successfully", "database", cfg.DatabaseName)

		store := services.NewMongoStore(mongoClient.Database(cfg.DatabaseName), cfg.IDStrategy)
		if err := store.EnsureExists(ctx); err != nil {
			utils.LogFatal("Failed to prepare MongoDB store", err)
		}

		return store, func() {
			disconnectCtx, disconnectCancel := config.CreateContext(5 * time.Second)
			defer disconnectCancel()
			if err := mongoClient.Disconnect(disconnectCtx); err != nil {
				utils.LogError("Failed to disconnect MongoDB", err)
			}
		}
	}

	store, err := services.NewJSONStore(services.JSONStoreOptions{
		Path:             cfg.DBFile,
		CorruptionPolicy: cfg.CorruptionPolicy,
		IDStrategy:       cfg.IDStrategy,
	})
	if err != nil {
		utils.LogFatal("Failed to create JSON store", err)
	}
	if err := store.EnsureExists(ctx); err != nil {
		utils.LogFatal("Checklist document location is not writable", err, "path", cfg.DBFile)
	}
	utils.LogInfo("Using JSON checklist document", "path", store.Path())

	return store, func() {}
}

// newVerifier returns the configured token verifier, or nil when auth is
// disabled. JWKS_URL wins over JWT_SECRET when both are set.
func newVerifier(ctx context.Context, cfg *config.Config) middleware.TokenVerifier {
	switch {
	case cfg.AuthDisabled:
		utils.LogWarning("Authentication is disabled, /checklists is open")
		return nil
	case cfg.JWKSURL != "":
		verifier, err := middleware.NewJWKSVerifier(ctx, cfg.JWKSURL, cfg.JWTIssuer, cfg.JWKSRefreshInterval)
		if err != nil {
			utils.LogFatal("Failed to initialize JWKS verifier", err)
		}
		return verifier
	default:
		return middleware.NewHMACVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	}
}

// loadEnvFile handles loading .env file from multiple possible locations
func loadEnvFile() {
	pwd, err := os.Getwd()
	if err != nil {
		utils.LogWarning("Could not get working directory", "err", err)
		return
	}

	envPaths := []string{
		".env",                                   // Current directory
		"../.env",                                // Parent directory
		filepath.Join(filepath.Dir(pwd), ".env"), // Absolute path to parent dir
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		absPath, _ := filepath.Abs(envPath)
		if err := godotenv.Load(envPath); err != nil {
			utils.LogWarning("Failed to load .env", "path", absPath, "err", err)
			continue
		}
		utils.LogInfo("Loaded environment variables", "path", absPath)
		return
	}

	utils.LogInfo("No .env file found, using system environment variables")
}
