package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/storage/memory/v2"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/khanghh/ktoken/internal/apikey"
	"github.com/khanghh/ktoken/internal/audit"
	"github.com/khanghh/ktoken/internal/common"
	"github.com/khanghh/ktoken/internal/config"
	"github.com/khanghh/ktoken/internal/handlers/api"
	"github.com/khanghh/ktoken/internal/middlewares"
	"github.com/khanghh/ktoken/internal/store"
	"github.com/khanghh/ktoken/internal/tokens"
	"github.com/khanghh/ktoken/model"
	"github.com/khanghh/ktoken/params"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
	gitTag    string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file (optional, environment variables are always read)",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "ktoken - opaque bearer token issuing service"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Run the HTTP API server",
			Action: run,
		},
		{
			Name:   "migrate",
			Usage:  "Create or update the database schema and exit",
			Action: migrate,
		},
		tokenCommand,
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	config, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config.", "error", err)
		return nil, err
	}
	mustInitLogger(config.Debug || ctx.IsSet(debugFlag.Name))
	return config, nil
}

func openDialector(driver string, dsn string) gorm.Dialector {
	if driver == config.DriverMySQL {
		return mysql.Open(dsn)
	}
	return sqlite.Open(dsn)
}

func mustInitDatabase(dbConfig config.DatabaseConfig) *gorm.DB {
	db, err := gorm.Open(openDialector(dbConfig.Driver, dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: dbConfig.TablePrefix,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if len(dbConfig.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(dbConfig.Replicas))
		for _, dsn := range dbConfig.Replicas {
			replicas = append(replicas, mysql.Open(dsn))
		}
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			slog.Error("Failed to register database replicas", "error", err)
			os.Exit(1)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to get database connection pool", "error", err)
		os.Exit(1)
	}
	if dbConfig.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	}
	if dbConfig.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	}
	if dbConfig.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	}
	return db
}

func mustMigrateDatabase(db *gorm.DB) {
	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
}

// mustInitCacheStorage returns the storage backing the active token cache, or
// nil when caching is disabled. The redis client is returned for readiness
// checks.
func mustInitCacheStorage(cfg *config.Config) (store.Storage, redis.UniversalClient) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redisStorage := fiberredis.New(fiberredis.Config{
			URL:           cfg.Redis.URL,
			PoolSize:      cfg.Redis.PoolSize,
			IsClusterMode: cfg.Redis.ClusterMode,
		})
		return redisStorage, redisStorage.Conn()
	case config.CacheBackendMemory:
		return memory.New(), nil
	}
	return nil, nil
}

func newTokenService(db *gorm.DB, cacheStorage store.Storage, cacheTTL time.Duration) *tokens.TokenService {
	var tokenRepo tokens.TokenRepository = tokens.NewTokenRepository(db)
	if cacheStorage != nil {
		cache := store.New[[]*model.Token](cacheStorage, params.ActiveTokensKeyPrefix)
		tokenRepo = tokens.NewCachedTokenRepository(tokenRepo, cache, cacheTTL)
	}
	return tokens.NewTokenService(tokenRepo)
}

// newAuditRecorder returns nil when the issuance trail is disabled.
func newAuditRecorder(cfg *config.Config, db *gorm.DB) api.AuditRecorder {
	if !cfg.Audit {
		return nil
	}
	return audit.NewRecorder(audit.NewAuditEventRepository(db))
}

func migrate(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	db := mustInitDatabase(config.Database)
	mustMigrateDatabase(db)
	slog.Info("Database schema is up to date", "driver", config.Database.Driver)
	return nil
}

func run(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	db := mustInitDatabase(config.Database)
	mustMigrateDatabase(db)
	cacheStorage, rdb := mustInitCacheStorage(config)
	if cacheStorage != nil {
		defer cacheStorage.Close()
	}

	var (
		apiKeyGuard   = apikey.NewGuard(config.APIKey)
		tokenService  = newTokenService(db, cacheStorage, config.Cache.TTL)
		auditRecorder = newAuditRecorder(config, db)
	)

	nextRequestID, err := common.NewRequestIDGenerator(params.RequestIDNode)
	if err != nil {
		return err
	}

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(requestid.New(requestid.Config{
		Generator: nextRequestID,
	}))
	router.Use(logger.New(logger.Config{
		Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
	}))
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(config.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, " + params.APIKeyHeader,
	}))

	api.SetupRoutes(router, apiKeyGuard, tokenService, auditRecorder)

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		if err := router.Shutdown(); err != nil {
			slog.Error("Failed to shutdown server", "error", err)
		}
	}()

	healthCheckCtx, term := context.WithCancel(sigCtx)
	done := make(chan struct{})
	go common.StartHealthCheckServer(healthCheckCtx, done, params.HealthCheckServerAddr, db, rdb)
	defer func() {
		term()
		<-done
	}()

	slog.Info("Starting server", "addr", config.ListenAddr, "version", params.VersionWithCommit(gitCommit, gitDate))
	return router.Listen(config.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
