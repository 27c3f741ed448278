package main

import (
	"context"
	"fmt"
	"time"

	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/events"
	"github.com/samwiegames/overheat/internal/infra/cache"
	"github.com/samwiegames/overheat/internal/infra/storage"
	"github.com/samwiegames/overheat/internal/network"
	"github.com/samwiegames/overheat/internal/platform/config"
	"github.com/samwiegames/overheat/internal/platform/logger"
)

// backend bundles the persistence collaborators selected by BEST_TIME_STORE.
type backend struct {
	store       engine.BestTimeStore
	history     engine.SessionHistory
	persister   events.EventPersister
	recaps      network.RecapSource
	leaderboard network.LeaderboardFunc
	close       func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		log.Info("Initializing SQLite database '" + cfg.SQLitePath + "'...")
		db, err := storage.InitSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		sessions := storage.NewSQLiteSessionRepository(db)
		eventRepo := storage.NewSQLiteEventRepository(db)
		b := &backend{
			store:   storage.NewSQLiteBestTimeStore(db, cfg.ProfileID),
			history: sessions,
			recaps:  storage.NewReconstructor(eventRepo),
			leaderboard: func(ctx context.Context, n int) ([]network.RankedRun, error) {
				records, err := sessions.Top(ctx, n)
				if err != nil {
					return nil, err
				}
				runs := make([]network.RankedRun, 0, len(records))
				for _, r := range records {
					runs = append(runs, network.RankedRun{SessionID: r.ID, Survived: r.Survived})
				}
				return runs, nil
			},
			close: func() { db.Close() },
		}
		if cfg.PersistEvents {
			b.persister = storage.NewPersister(eventRepo, 5*time.Second)
		}
		return b, nil

	case "redis":
		log.Info("Connecting to Redis at " + cfg.RedisAddr() + "...")
		client, err := cache.Connect(ctx, cache.Options{
			Addr:       cfg.RedisAddr(),
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			PoolSize:   cfg.RedisPoolSize,
			MaxRetries: cfg.RedisMaxRetries,
			RetryDelay: cfg.RedisRetryDelay(),
		})
		if err != nil {
			return nil, err
		}
		board := cache.NewLeaderboard(client)
		return &backend{
			store:   cache.NewRedisBestTimeStore(client, cfg.ProfileID),
			history: board,
			leaderboard: func(ctx context.Context, n int) ([]network.RankedRun, error) {
				top, err := board.Top(ctx, n)
				if err != nil {
					return nil, err
				}
				runs := make([]network.RankedRun, 0, len(top))
				for _, r := range top {
					runs = append(runs, network.RankedRun{SessionID: r.SessionID, Survived: r.Survived})
				}
				return runs, nil
			},
			close: func() { client.Close() },
		}, nil

	default:
		log.Warn("Using the in-memory best time store; records are lost on restart")
		return &backend{
			store: storage.NewMemoryBestTimeStore(0),
			close: func() {},
		}, nil
	}
}
