package web

import (
	"context"

	"github.com/alexedwards/scs/v2"

	"github.com/roomiez/webapp/internal/model"
	"github.com/roomiez/webapp/internal/storage"
)

// newSessionManager configures the browser-session layer. Its lifetime
// is longer than the guard's validity window so the guard's own expiry
// math, not the cookie, decides when a session dies.
func newSessionManager(store storage.Store) *scs.SessionManager {
	sm := scs.New()
	sm.Store = storage.NewScsStore(store)
	sm.Lifetime = 2 * model.SessionTTL
	sm.Cookie.Name = "roomiez_browser"
	return sm
}

// scsRecords exposes the per-browser scs data as the guard's record
// store. The records live inside the browser's session blob, keyed by
// the stable storage key names.
type scsRecords struct {
	sm *scs.SessionManager
}

func (s scsRecords) Get(ctx context.Context, key string) ([]byte, error) {
	b, ok := s.sm.Get(ctx, key).([]byte)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (s scsRecords) Set(ctx context.Context, key string, value []byte) error {
	s.sm.Put(ctx, key, value)
	return nil
}

func (s scsRecords) Delete(ctx context.Context, key string) error {
	s.sm.Remove(ctx, key)
	return nil
}
