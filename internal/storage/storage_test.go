package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func Test_MemoryRoundTrip(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := NewMemory()
	ctx := context.Background()

	_, err := s.Get(ctx, SessionKey)
	assert.ErrorIs(err, ErrNotFound)

	require.Nil(s.Set(ctx, SessionKey, []byte("hello"), time.Time{}))
	b, err := s.Get(ctx, SessionKey)
	require.Nil(err)
	assert.Equal([]byte("hello"), b)

	require.Nil(s.Delete(ctx, SessionKey))
	_, err = s.Get(ctx, SessionKey)
	assert.ErrorIs(err, ErrNotFound)

	// Deleting an absent key is not an error.
	require.Nil(s.Delete(ctx, SessionKey))
}

func Test_MemoryExpiry(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := NewMemory()
	ctx := context.Background()

	require.Nil(s.Set(ctx, "k", []byte("v"), time.Now().Add(-time.Second)))
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(err, ErrNotFound)
}

func Test_FilePersistsAcrossInstances(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "records.json")
	ctx := context.Background()

	s1, err := NewFile(path, zap.NewNop())
	require.Nil(err)
	require.Nil(s1.Set(ctx, SessionKey, []byte(`{"userId":7}`), time.Time{}))
	require.Nil(s1.Close())

	s2, err := NewFile(path, zap.NewNop())
	require.Nil(err)
	b, err := s2.Get(ctx, SessionKey)
	require.Nil(err)
	assert.Equal([]byte(`{"userId":7}`), b)

	require.Nil(s2.Delete(ctx, SessionKey))
	require.Nil(s2.Close())

	s3, err := NewFile(path, zap.NewNop())
	require.Nil(err)
	_, err = s3.Get(ctx, SessionKey)
	assert.ErrorIs(err, ErrNotFound)
}

func Test_ScsStoreAdapter(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := NewScsStore(NewMemory())

	_, found, err := s.Find("token")
	require.Nil(err)
	assert.False(found)

	require.Nil(s.Commit("token", []byte("blob"), time.Now().Add(time.Hour)))
	b, found, err := s.Find("token")
	require.Nil(err)
	assert.True(found)
	assert.Equal([]byte("blob"), b)

	require.Nil(s.Delete("token"))
	_, found, err = s.Find("token")
	require.Nil(err)
	assert.False(found)

	// Deleting twice is fine.
	require.Nil(s.Delete("token"))
}
