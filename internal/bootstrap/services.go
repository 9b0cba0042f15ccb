package bootstrap

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/hecopilot/copilot-backend/config"
	"github.com/hecopilot/copilot-backend/internal/opendata"
	sandboxrepo "github.com/hecopilot/copilot-backend/internal/sandbox/repository"
	sandboxsvc "github.com/hecopilot/copilot-backend/internal/sandbox/service"
	"github.com/hecopilot/copilot-backend/internal/storage/objectstore"
)

// NewSandbox wires the file sandbox. A missing bucket leaves the store unset
// so requests fail with a configuration error.
func NewSandbox(ctx context.Context, cfg config.StorageConfig, db *sql.DB) (*sandboxsvc.SandboxService, error) {
	var store objectstore.Store
	s3store, err := objectstore.New(ctx, &cfg)
	if err != nil {
		return nil, err
	}
	if s3store != nil {
		store = s3store
	}

	return sandboxsvc.NewSandboxService(sandboxrepo.NewFileRepository(db), store, sandboxsvc.Options{
		SignedURLTTL: cfg.SignedURLTTL,
		FileTTL:      cfg.FileTTL,
	}), nil
}

// NewOpenData wires the open-data service with an optional redis cache and
// the DB-backed proxy allow-list.
func NewOpenData(cfg *config.Config, rdb *redis.Client, db *sql.DB) *opendata.Service {
	opts := opendata.ClientOptions{
		RequestsPerSecond: cfg.OpenData.RequestsPerSecond,
		CacheTTL:          cfg.Redis.CacheTTL,
	}
	if rdb != nil {
		opts.Cache = opendata.NewRedisCache(rdb)
	}

	var loader opendata.HostLoader
	if db != nil {
		loader = opendata.NewAllowListRepository(db)
	}

	return opendata.NewService(
		opendata.NewClient(opts),
		opendata.DefaultEndpoints(),
		cfg.OpenData,
		opendata.NewAllowList(loader),
	)
}
