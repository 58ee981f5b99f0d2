// Package storage persists the named session records shared between
// page loads. The key names are a stable contract with already-issued
// sessions: renaming them invalidates every session in the wild.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/roomiez/webapp/internal/config"
)

const (
	// SessionKey holds the JSON session record.
	SessionKey = "roomieZ_session"

	// UserIDKey holds the decimal user id for fast checks that do not
	// need the full record.
	UserIDKey = "roomieZ_userId"
)

var ErrNotFound = errors.New("record not found")

// Store persists named binary records. A zero expiresAt means the
// record does not expire at the storage layer; session expiry is
// enforced by the guard regardless of backend TTL support.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Params struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Log    *zap.Logger
}

// New selects the backend named by the config.
func New(p Params) (Store, error) {
	switch p.Config.Storage.Backend {
	case config.BackendMemory, "":
		return NewMemory(), nil
	case config.BackendFile:
		s, err := NewFile(p.Config.Storage.Path, p.Log)
		if err != nil {
			return nil, err
		}
		p.LC.Append(fx.Hook{
			OnStop: func(context.Context) error { return s.flush() },
		})
		return s, nil
	case config.BackendRedis:
		return NewRedis(p.Config.Storage.RedisAddr, p.Config.Storage.RedisPassword, p.Config.Storage.RedisDB)
	case config.BackendSQLite:
		return NewSQLite(p.Config.Storage.SQLitePath)
	default:
		return nil, fmt.Errorf("storage: unsupported backend %q", p.Config.Storage.Backend)
	}
}
