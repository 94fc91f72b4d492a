// Root composition root. Owns infrastructure (DB, Redis) and composes
// the domain services. This is the only place that knows about all
// modules.
package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/poacpm/api/pkg/auth/authinfra"
	"github.com/poacpm/api/pkg/auth/authsrv"
	"github.com/poacpm/api/pkg/catalog/cataloginfra"
	"github.com/poacpm/api/pkg/catalog/catalogsrv"
	"github.com/poacpm/api/pkg/config"
	"github.com/poacpm/api/pkg/logx"
	"github.com/poacpm/api/pkg/user/userinfra"
)

// Container holds shared infrastructure and the composed services.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB    *sqlx.DB
	Redis *redis.Client

	// Services and their HTTP handlers
	AuthHandlers    *authsrv.Handlers
	CatalogHandlers *catalogsrv.Handlers
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("initializing application container")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("application container initialized")
	return c
}

func (c *Container) initInfrastructure() {
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN)
	if err != nil {
		logx.Fatalf("failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("database connected")

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Redis.Ping(ctx).Result(); err != nil {
		logx.Fatalf("failed to connect to Redis: %v", err)
	}
	logx.Info("redis connected")
}

func (c *Container) initModules() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo := userinfra.NewPostgresUserRepository(c.DB)
	if err := userRepo.EnsureSchema(ctx); err != nil {
		logx.Fatalf("failed to migrate users schema: %v", err)
	}

	packageRepo := cataloginfra.NewPostgresPackageRepository(c.DB)
	if err := packageRepo.EnsureSchema(ctx); err != nil {
		logx.Fatalf("failed to migrate packages schema: %v", err)
	}
	cachedPackages := cataloginfra.NewCachedPackageRepository(packageRepo, c.Redis, c.Config.Redis.CacheTTL)

	githubClient := authinfra.NewGitHubClient(
		c.Config.GitHub.ClientID,
		c.Config.GitHub.ClientSecret,
	)

	authService := authsrv.NewService(githubClient, userRepo, c.Config.Auth.CallTimeout)
	c.AuthHandlers = authsrv.NewHandlers(authService, authsrv.RedirectEncoder{
		Base: c.Config.Auth.RedirectBase,
	})

	catalogService := catalogsrv.NewService(cachedPackages)
	c.CatalogHandlers = catalogsrv.NewHandlers(catalogService)
}

// Cleanup closes shared infrastructure.
func (c *Container) Cleanup() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("failed to close database: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("failed to close redis client: %v", err)
		}
	}
}
