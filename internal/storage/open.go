package storage

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/migrate"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

// Stack is the slot backend selected by configuration plus the connections behind it.
type Stack struct {
	Backend Backend
	Redis   *pkgredis.Client
	DB      *db.Client
}

// Open connects the configured slot backend. SQL backends run dev auto-migrations.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Stack, error) {
	backend := cfg.Storage.NormalizedBackend()
	switch backend {
	case config.StorageBackendMemory:
		return &Stack{Backend: NewMemory()}, nil

	case config.StorageBackendRedis:
		client, err := pkgredis.New(ctx, cfg.Redis, cfg.Storage.Namespace, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		slots, err := NewRedis(client, cfg.Session.TTL)
		if err != nil {
			return nil, multierr.Append(err, client.Close())
		}
		return &Stack{Backend: slots, Redis: client}, nil

	case config.StorageBackendPostgres, config.StorageBackendSQLite:
		client, err := db.New(ctx, backend, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(fmt.Errorf("dev migrations: %w", err), client.Close())
		}
		slots, err := NewSQL(client.DB())
		if err != nil {
			return nil, multierr.Append(err, client.Close())
		}
		return &Stack{Backend: slots, DB: client}, nil
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
}

// Close releases every connection the stack holds.
func (s *Stack) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.Redis != nil {
		err = multierr.Append(err, s.Redis.Close())
	}
	if s.DB != nil {
		err = multierr.Append(err, s.DB.Close())
	}
	return err
}
