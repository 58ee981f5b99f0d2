package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roomiez/webapp/internal/model"
	"github.com/roomiez/webapp/internal/storage"
)

func newTestGuard(t *testing.T) (*Guard, RecordStore, clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	records := StoreRecords(storage.NewMemory())
	return NewGuard(records, clock, zap.NewNop()), records, clock
}

func testUser(id int) *model.User {
	return &model.User{
		ID:        id,
		Email:     "a@b.com",
		FirstName: "Ana",
		LastName:  "Diaz",
		Role:      "student",
		City:      "Barranquilla",
		Birthdate: "2000-01-15",
	}
}

func Test_RestoreWithoutRecord(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, _, _ := newTestGuard(t)
	ctx := context.Background()

	state, err := guard.Restore(ctx)
	require.Nil(err)
	assert.Equal(Anonymous, state)
	assert.False(guard.Authorized(42))
	assert.Nil(guard.User())
}

func Test_EstablishThenRestore(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, records, clock := newTestGuard(t)
	ctx := context.Background()

	require.Nil(guard.Establish(ctx, testUser(7)))
	assert.Equal(Authenticated, guard.State())

	// A fresh guard over the same records is a new page load.
	fresh := NewGuard(records, clock, zap.NewNop())
	state, err := fresh.Restore(ctx)
	require.Nil(err)
	assert.Equal(Authenticated, state)
	require.NotNil(fresh.User())
	assert.Equal(7, fresh.User().ID)

	id, ok := fresh.UserID()
	assert.True(ok)
	assert.Equal(7, id)
}

func Test_EstablishRejectsMissingID(t *testing.T) {
	assert := assert.New(t)

	guard, _, _ := newTestGuard(t)
	ctx := context.Background()

	assert.NotNil(guard.Establish(ctx, nil))
	assert.NotNil(guard.Establish(ctx, &model.User{Email: "a@b.com"}))
	assert.Equal(Anonymous, guard.State())
}

func Test_Expiry(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, records, clock := newTestGuard(t)
	ctx := context.Background()
	require.Nil(guard.Establish(ctx, testUser(7)))

	clock.Advance(23*time.Hour + 59*time.Minute)
	fresh := NewGuard(records, clock, zap.NewNop())
	state, err := fresh.Restore(ctx)
	require.Nil(err)
	assert.Equal(Authenticated, state)

	clock.Advance(2 * time.Minute)
	fresh = NewGuard(records, clock, zap.NewNop())
	state, err = fresh.Restore(ctx)
	require.Nil(err)
	assert.Equal(Anonymous, state)
	assert.True(fresh.SessionExpired())

	// The record was erased, so a later restore stays anonymous even
	// if the clock were rolled back.
	_, err = records.Get(ctx, storage.SessionKey)
	assert.ErrorIs(err, storage.ErrNotFound)
	_, err = records.Get(ctx, storage.UserIDKey)
	assert.ErrorIs(err, storage.ErrNotFound)

	state, err = fresh.Restore(ctx)
	require.Nil(err)
	assert.Equal(Anonymous, state)
	assert.False(fresh.SessionExpired())
}

func Test_ExpiryBoundary(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, records, clock := newTestGuard(t)
	ctx := context.Background()
	require.Nil(guard.Establish(ctx, testUser(7)))

	// Exactly 24h old is already expired.
	clock.Advance(model.SessionTTL)
	fresh := NewGuard(records, clock, zap.NewNop())
	state, err := fresh.Restore(ctx)
	require.Nil(err)
	assert.Equal(Anonymous, state)
}

func Test_SelfScopeOnly(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, _, _ := newTestGuard(t)
	ctx := context.Background()

	// Anonymous: every check fails, including the general one.
	assert.False(guard.Authorized())
	assert.False(guard.Authorized(7))

	require.Nil(guard.Establish(ctx, testUser(7)))
	assert.True(guard.Authorized())
	assert.True(guard.Authorized(7))
	assert.False(guard.Authorized(9))
	assert.False(guard.Authorized(0))
	assert.False(guard.Authorized(-7))
}

func Test_ClearIsIdempotent(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, _, _ := newTestGuard(t)
	ctx := context.Background()

	require.Nil(guard.Establish(ctx, testUser(7)))
	require.Nil(guard.Clear(ctx))
	assert.Equal(Anonymous, guard.State())

	// Clearing again is a no-op, not an error.
	require.Nil(guard.Clear(ctx))
	assert.Equal(Anonymous, guard.State())
}

func Test_FailClosedOnMalformedRecords(t *testing.T) {
	for _, tc := range []struct {
		name   string
		record string
	}{
		{"not json", "{{{"},
		{"missing user", `{"userId":7,"isAuthenticated":true,"timestamp":1}`},
		{"missing id", `{"user":{"email":"a@b.com"},"userId":7,"isAuthenticated":true,"timestamp":1}`},
		{"non-numeric userId", `{"user":{"id":7},"userId":"7","isAuthenticated":true,"timestamp":1}`},
		{"id mismatch", `{"user":{"id":7},"userId":9,"isAuthenticated":true,"timestamp":1}`},
		{"not authenticated", `{"user":{"id":7},"userId":7,"isAuthenticated":false,"timestamp":1}`},
		{"zero timestamp", `{"user":{"id":7},"userId":7,"isAuthenticated":true,"timestamp":0}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			assert := assert.New(t)

			guard, records, _ := newTestGuard(t)
			ctx := context.Background()
			require.Nil(records.Set(ctx, storage.SessionKey, []byte(tc.record)))

			state, err := guard.Restore(ctx)
			require.Nil(err)
			assert.Equal(Anonymous, state)
			assert.False(guard.SessionExpired())

			// Identical to no record at all: it was erased.
			_, err = records.Get(ctx, storage.SessionKey)
			assert.ErrorIs(err, storage.ErrNotFound)
		})
	}
}

func Test_UpdateProfileKeepsTimestampAndID(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, records, clock := newTestGuard(t)
	ctx := context.Background()
	require.Nil(guard.Establish(ctx, testUser(7)))

	created := clock.Now().UnixMilli()
	clock.Advance(time.Hour)

	city := "Cartagena"
	require.Nil(guard.UpdateProfile(ctx, model.UserPatch{City: &city}))

	fresh := NewGuard(records, clock, zap.NewNop())
	state, err := fresh.Restore(ctx)
	require.Nil(err)
	require.Equal(Authenticated, state)

	assert.Equal("Cartagena", fresh.User().City)
	assert.Equal(7, fresh.User().ID)

	id, ok := fresh.UserID()
	assert.True(ok)
	assert.Equal(7, id)

	// The persisted record still carries the original timestamp.
	raw, err := records.Get(ctx, storage.SessionKey)
	require.Nil(err)
	var rec model.Session
	require.Nil(json.Unmarshal(raw, &rec))
	assert.Equal(created, rec.Timestamp)
	assert.Equal(7, rec.UserID)

	// The edit did not renew the validity window.
	clock.Advance(23*time.Hour + 30*time.Minute)
	fresh = NewGuard(records, clock, zap.NewNop())
	state, err = fresh.Restore(ctx)
	require.Nil(err)
	assert.Equal(Anonymous, state)
}

func Test_UpdateProfileWhileAnonymous(t *testing.T) {
	assert := assert.New(t)

	guard, _, _ := newTestGuard(t)
	ctx := context.Background()

	city := "Cartagena"
	err := guard.UpdateProfile(ctx, model.UserPatch{City: &city})
	assert.ErrorIs(err, ErrNotAuthenticated)

	// The failed edit must not authenticate as a side effect.
	assert.Equal(Anonymous, guard.State())
}

func Test_Require(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, _, _ := newTestGuard(t)
	ctx := context.Background()

	called := false
	assert.False(guard.Require(func() { called = true }))
	assert.True(called)

	require.Nil(guard.Establish(ctx, testUser(7)))
	called = false
	assert.True(guard.Require(func() { called = true }))
	assert.False(called)
}

func Test_LogoutObservedAcrossGuards(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, records, clock := newTestGuard(t)
	ctx := context.Background()
	require.Nil(guard.Establish(ctx, testUser(7)))

	// Two tabs share the persisted record.
	tabA := NewGuard(records, clock, zap.NewNop())
	tabB := NewGuard(records, clock, zap.NewNop())

	state, err := tabA.Restore(ctx)
	require.Nil(err)
	require.Equal(Authenticated, state)

	require.Nil(tabA.Clear(ctx))

	state, err = tabB.Restore(ctx)
	require.Nil(err)
	assert.Equal(Anonymous, state)
}

func Test_CachedUserID(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	guard, records, _ := newTestGuard(t)
	ctx := context.Background()

	_, ok := CachedUserID(ctx, records)
	assert.False(ok)

	require.Nil(guard.Establish(ctx, testUser(7)))
	id, ok := CachedUserID(ctx, records)
	assert.True(ok)
	assert.Equal(7, id)

	require.Nil(records.Set(ctx, storage.UserIDKey, []byte("not-a-number")))
	_, ok = CachedUserID(ctx, records)
	assert.False(ok)
}
