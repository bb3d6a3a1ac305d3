package container

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"catalogmirror/scraper/internal/api"
	"catalogmirror/scraper/internal/client"
	"catalogmirror/scraper/internal/config"
	"catalogmirror/scraper/internal/hierarchy"
	"catalogmirror/scraper/internal/imagecache"
	"catalogmirror/scraper/internal/metrics"
	"catalogmirror/scraper/internal/queue"
	"catalogmirror/scraper/internal/repository"
	"catalogmirror/scraper/internal/service"
	"catalogmirror/scraper/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config    *config.Config
	Store     repository.SnapshotStore
	Mirror    repository.ProductRepository
	Publisher queue.Publisher
	Lock      state.SyncLock

	Service *service.Service
	Server  *api.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
		Lock:   state.NewLocalSyncLock(),
	}

	metrics.Init()

	parser := client.NewCatalogParser(cfg.Shop.BaseURL, client.DefaultLayout())

	resolver, err := hierarchy.New(cfg.Hierarchy, parser)
	if err != nil {
		return nil, err
	}

	images, err := imagecache.New(imagecache.Config{
		Dir:       cfg.Storage.ImagesDir,
		URLPrefix: cfg.Storage.ImageURLPrefix,
		Refresh:   cfg.Storage.RefreshImages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image cache: %w", err)
	}

	container.Store = repository.NewFileSnapshotStore(filepath.Join(cfg.Storage.DataDir, cfg.Storage.SnapshotFile))

	if cfg.Database.Enabled {
		if err := container.connectDatabase(ctx); err != nil {
			container.Close()
			return nil, err
		}
	}

	if cfg.Redis.Enabled {
		if err := container.connectRedis(ctx); err != nil {
			container.Close()
			return nil, err
		}
	}

	builder := service.NewCatalogBuilder(
		resolver,
		service.NewPaginator(parser, cfg.Shop.MaxPages, cfg.Shop.MaxForcedProbes),
		images,
		cfg.Hierarchy.IncludeRootIDs,
		cfg.Shop.CategoryDelay,
	)

	container.Service = service.NewService(
		client.NewSessionFactory(cfg.Shop),
		builder,
		container.Store,
		container.Lock,
		container.Mirror,
		container.Publisher,
	)

	container.Server = api.NewServer(container.Service, cfg.Storage.ImagesDir, cfg.Storage.ImageURLPrefix)

	return container, nil
}

func (c *Container) connectDatabase(ctx context.Context) error {
	db, err := pgxpool.New(ctx, c.Config.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	c.db = db

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("✅ Connected to Postgres successfully")

	repo, err := repository.NewProductRepository(db, c.Config.Database.Table)
	if err != nil {
		return err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	c.Mirror = repo
	return nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", c.Config.Redis.Host, c.Config.Redis.Port),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.Database,
	})
	c.redis = rdb

	// Test connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")

	c.Lock = state.NewRedisSyncLock(rdb, c.Config.Redis.LockKey, c.Config.Redis.LockTTL)
	c.Publisher = queue.NewRedisPublisher(rdb, c.Config.Redis.Stream)
	return nil
}

// SyncOnce runs a single sync and reports whether it succeeded.
func (c *Container) SyncOnce(ctx context.Context) bool {
	return c.Service.Sync(ctx)
}

// Run serves the API and runs the sync scheduler until ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              net.JoinHostPort(c.Config.Server.Host, strconv.Itoa(c.Config.Server.Port)),
		Handler:           c.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Infof("🌐 Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return c.Service.RunScheduler(ctx, c.Config.Server.SyncInterval, c.Config.Server.SyncOnStart)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("⚠️ Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
