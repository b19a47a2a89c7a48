package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/miniapp_admin/internal/webapp"
)

func TestInitDataParses(t *testing.T) {
	raw := InitData(InitDataOptions{UserID: 99, LanguageCode: "de", StartParam: "orders"})

	data, err := webapp.ParseInitData(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(99), data.User.ID)
	assert.Equal(t, webapp.LanguageCode("de"), data.User.LanguageCode)
	assert.Equal(t, "orders", data.StartParam)
	assert.NotEmpty(t, data.Hash)
}

func TestInitDataEscapesUserFields(t *testing.T) {
	name := "Ada \u0007\"Lovelace\"\n\u00e9"
	raw := InitData(InitDataOptions{UserID: 3, FirstName: name})

	data, err := webapp.ParseInitData(raw)
	require.NoError(t, err)
	assert.Equal(t, name, data.User.FirstName)
}

func TestMockVerifier(t *testing.T) {
	ctx := context.Background()
	v := NewMockVerifier()
	good := InitData(InitDataOptions{UserID: 5})
	unknown := InitData(InitDataOptions{UserID: 6})
	broken := InitData(InitDataOptions{UserID: 7})
	v.Accept(good, 5)
	v.Fail(broken, webapp.ErrVerifierUnavailable)

	session, err := v.Verify(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, int64(5), session.UserID)

	_, err = v.Verify(ctx, unknown)
	assert.ErrorIs(t, err, webapp.ErrRejected)

	_, err = v.Verify(ctx, broken)
	assert.True(t, errors.Is(err, webapp.ErrVerifierUnavailable))

	_, err = v.Verify(ctx, "hash=only")
	assert.ErrorIs(t, err, webapp.ErrMissingField)

	assert.Equal(t, 4, v.Calls())
}

func TestMockCacheWithCachingVerifier(t *testing.T) {
	ctx := context.Background()
	v := NewMockVerifier()
	raw := InitData(InitDataOptions{UserID: 5})
	v.Accept(raw, 5)

	cache := NewMockCache()
	caching := webapp.NewCachingVerifier(v, cache, time.Hour)

	for i := 0; i < 3; i++ {
		_, err := caching.Verify(ctx, raw)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, v.Calls())
	assert.Equal(t, 1, cache.Count())
	assert.Equal(t, time.Hour, cache.TTL(webapp.CacheKey(raw)))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore[string, int]()
	s.Set("a", 1)
	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	s.Delete("a")
	assert.Zero(t, s.Count())
}
