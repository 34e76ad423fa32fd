package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/nestflow/internal/config"
	"github.com/aretw0/nestflow/pkg/adapters/file"
	"github.com/aretw0/nestflow/pkg/adapters/loam"
	"github.com/aretw0/nestflow/pkg/adapters/memory"
	"github.com/aretw0/nestflow/pkg/adapters/redis"
	"github.com/aretw0/nestflow/pkg/adapters/sqlite"
	"github.com/aretw0/nestflow/pkg/persistence/middleware"
	"github.com/aretw0/nestflow/pkg/ports"
)

// Stores bundles the persistence ports selected by configuration.
type Stores struct {
	Modules  ports.ModuleStore
	Sessions ports.SessionStore
	Media    ports.MediaStore
	// Locker is nil unless a distributed backend enables it.
	Locker ports.DistributedLocker

	closers []func() error
}

// Close releases backend connections.
func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenStores builds the module, session and media stores for cfg.
// Sessions live next to modules except for loam and sqlite, which keep them on disk.
func OpenStores(cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	s := &Stores{
		Media: memory.NewMediaStore(cfg.Media.BaseURL, cfg.Media.Bucket),
	}

	switch cfg.Store.Backend {
	case config.StoreMemory:
		s.Modules = memory.NewModuleStore()
		s.Sessions = memory.NewSessionStore()

	case config.StoreFile:
		s.Modules = file.NewModuleStore(filepath.Join(cfg.Store.Dir, "modules"))
		s.Sessions = file.NewSessionStore(filepath.Join(cfg.Store.Dir, "sessions"))

	case config.StoreRedis:
		client := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		var opts []redis.Option
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		s.Modules = redis.NewModuleStore(client, opts...)
		s.Sessions = redis.NewSessionStore(client, opts...)
		if cfg.Redis.Lock {
			s.Locker = redis.NewLocker(client, "nestflow:lock:")
		}
		s.closers = append(s.closers, client.Close)

	case config.StoreLoam:
		store, err := loam.Open(cfg.Loam.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open loam repository: %w", err)
		}
		s.Modules = store
		s.Sessions = file.NewSessionStore(filepath.Join(cfg.Store.Dir, "sessions"))

	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		s.Modules = store
		s.Sessions = file.NewSessionStore(filepath.Join(cfg.Store.Dir, "sessions"))
		s.closers = append(s.closers, store.Close)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var mws []middleware.Middleware
	if len(cfg.Session.Redact) > 0 {
		mws = append(mws, middleware.NewRedactMiddleware(cfg.Session.Redact))
	}
	if cfg.Session.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.Session.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid session encryption key: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("session encryption key must be 32 bytes, got %d", len(key))
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	s.Sessions = middleware.Chain(s.Sessions, mws...)

	logger.Debug("Stores ready", "backend", cfg.Store.Backend, "locking", s.Locker != nil)
	return s, nil
}
