package storage

import (
	"context"
	"errors"
	"time"
)

// ScsStore adapts a Store to the session-manager store interface so the
// web tier's per-browser session blobs persist through the configured
// backend.
type ScsStore struct {
	store  Store
	prefix string
}

func NewScsStore(store Store) *ScsStore {
	return &ScsStore{store: store, prefix: "scs:"}
}

func (s *ScsStore) Find(token string) ([]byte, bool, error) {
	b, err := s.store.Get(context.Background(), s.prefix+token)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *ScsStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.store.Set(context.Background(), s.prefix+token, b, expiry)
}

func (s *ScsStore) Delete(token string) error {
	err := s.store.Delete(context.Background(), s.prefix+token)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
