// Package session implements the client-side session and
// authorization-scoping model: one guard per page bootstrap that
// establishes, restores, expires, and clears the persisted session
// record, and answers whether the current principal may act on a given
// resource owner's data.
//
// The guard is a UI convenience gate, not a security boundary: every
// write still goes to the backend, which is the authoritative enforcer.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/roomiez/webapp/internal/model"
	"github.com/roomiez/webapp/internal/storage"
)

// State of the guard. A fresh page load starts Anonymous; only a
// successful restore, login, or registration moves it to Authenticated.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// ErrNotAuthenticated is returned by operations that need an
// established session.
var ErrNotAuthenticated = errors.New("not authenticated")

// RecordStore is the slice of the persisted store the guard needs: the
// named records belonging to the current browser.
type RecordStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// StoreRecords exposes a storage backend directly as the guard's record
// store, without a storage-layer TTL. Expiry is the guard's timestamp
// math either way.
func StoreRecords(s storage.Store) RecordStore {
	return storeRecords{s}
}

type storeRecords struct {
	s storage.Store
}

func (r storeRecords) Get(ctx context.Context, key string) ([]byte, error) {
	return r.s.Get(ctx, key)
}

func (r storeRecords) Set(ctx context.Context, key string, value []byte) error {
	return r.s.Set(ctx, key, value, time.Time{})
}

func (r storeRecords) Delete(ctx context.Context, key string) error {
	return r.s.Delete(ctx, key)
}

// Guard owns the session for one page bootstrap.
type Guard struct {
	records RecordStore
	clock   clockwork.Clock
	log     *zap.Logger

	state   State
	sess    *model.Session
	expired bool
}

func NewGuard(records RecordStore, clock clockwork.Clock, log *zap.Logger) *Guard {
	return &Guard{
		records: records,
		clock:   clock,
		log:     log,
		state:   Anonymous,
	}
}

// Establish persists a session for user as one atomic record and moves
// the guard to Authenticated. The caller is expected to have validated
// the principal against the identity API already.
func (g *Guard) Establish(ctx context.Context, user *model.User) error {
	if user == nil || user.ID <= 0 {
		return fmt.Errorf("session: principal is missing a numeric id")
	}

	u := *user
	sess := &model.Session{
		User:            &u,
		UserID:          u.ID,
		IsAuthenticated: true,
		Timestamp:       g.clock.Now().UnixMilli(),
	}

	if err := g.persist(ctx, sess); err != nil {
		return err
	}

	g.state = Authenticated
	g.sess = sess
	g.log.Info("session established", zap.Int("user_id", u.ID))
	return nil
}

// Restore rehydrates the guard from the persisted record. An absent
// record leaves everything untouched; an expired or malformed record is
// erased. Only storage failures come back as errors.
func (g *Guard) Restore(ctx context.Context) (State, error) {
	g.expired = false

	b, err := g.records.Get(ctx, storage.SessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		g.state = Anonymous
		g.sess = nil
		return Anonymous, nil
	}
	if err != nil {
		return Anonymous, fmt.Errorf("session: read record: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(b, &sess); err != nil || !sess.Valid() {
		// Corrupt records are indistinguishable from tampering: fail
		// closed.
		g.log.Warn("discarding malformed session record")
		if cerr := g.Clear(ctx); cerr != nil {
			return Anonymous, cerr
		}
		return Anonymous, nil
	}

	now := g.clock.Now()
	if sess.Expired(now) {
		g.log.Info("session expired",
			zap.Int("user_id", sess.UserID),
			zap.Duration("age", sess.Age(now)),
		)
		if cerr := g.Clear(ctx); cerr != nil {
			return Anonymous, cerr
		}
		g.expired = true
		return Anonymous, nil
	}

	g.state = Authenticated
	g.sess = &sess
	return Authenticated, nil
}

// SessionExpired reports whether the last restore discarded an expired
// record. It lets the caller tell "your session ran out" apart from
// "you never signed in".
func (g *Guard) SessionExpired() bool {
	return g.expired
}

// Clear erases the persisted record and resets the guard. Clearing an
// already-anonymous guard is a no-op.
func (g *Guard) Clear(ctx context.Context) error {
	for _, key := range []string{storage.SessionKey, storage.UserIDKey} {
		if err := g.records.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("session: erase %s: %w", key, err)
		}
	}
	g.state = Anonymous
	g.sess = nil
	return nil
}

// Authorized reports whether the current principal may act on the given
// resource owner. With no target it is a general authentication check;
// with one it is true only for the principal's own id. Ids are compared
// numerically; emails and usernames are not stable identities.
func (g *Guard) Authorized(targetUserID ...int) bool {
	if g.state != Authenticated || g.sess == nil || g.sess.User == nil {
		return false
	}
	if len(targetUserID) == 0 {
		return true
	}
	return targetUserID[0] == g.sess.User.ID
}

// Require gates protected rendering and owner-scoped writes. When
// anonymous it runs onFail (notify and navigate, caller's choice) and
// reports false. It never panics.
func (g *Guard) Require(onFail func()) bool {
	if g.Authorized() {
		return true
	}
	if onFail != nil {
		onFail()
	}
	return false
}

// UpdateProfile patches the cached principal after the user edits their
// own profile. The timestamp is deliberately left alone so edits never
// extend the validity window, and the record is rewritten wholesale so
// the id copies cannot diverge.
func (g *Guard) UpdateProfile(ctx context.Context, patch model.UserPatch) error {
	if g.state != Authenticated || g.sess == nil || g.sess.User == nil {
		return ErrNotAuthenticated
	}

	u := *g.sess.User
	patch.Apply(&u)

	sess := *g.sess
	sess.User = &u

	if err := g.persist(ctx, &sess); err != nil {
		return err
	}

	g.sess = &sess
	return nil
}

// State returns the guard's current state.
func (g *Guard) State() State {
	return g.state
}

// User returns a copy of the current principal, or nil when anonymous.
func (g *Guard) User() *model.User {
	if g.state != Authenticated || g.sess == nil || g.sess.User == nil {
		return nil
	}
	u := *g.sess.User
	return &u
}

// UserID returns the principal's id and whether one is present.
func (g *Guard) UserID() (int, bool) {
	if g.state != Authenticated || g.sess == nil {
		return 0, false
	}
	return g.sess.UserID, true
}

func (g *Guard) persist(ctx context.Context, sess *model.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode record: %w", err)
	}
	if err := g.records.Set(ctx, storage.SessionKey, b); err != nil {
		return fmt.Errorf("session: persist record: %w", err)
	}
	if err := g.records.Set(ctx, storage.UserIDKey, []byte(strconv.Itoa(sess.UserID))); err != nil {
		return fmt.Errorf("session: persist id record: %w", err)
	}
	return nil
}

// CachedUserID reads the convenience id record without decoding the
// full session. It is a fast path only; authorization decisions go
// through a restored guard.
func CachedUserID(ctx context.Context, records RecordStore) (int, bool) {
	b, err := records.Get(ctx, storage.UserIDKey)
	if err != nil {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
