package valve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ryanm101/vent/internal/metacache"
)

type MockSource struct {
	mock.Mock
	kind metacache.Kind
}

func (m *MockSource) Kind() metacache.Kind {
	return m.kind
}

func (m *MockSource) Fetch(ctx context.Context, appID string) (metacache.Blob, error) {
	args := m.Called(appID)
	blob, _ := args.Get(0).(metacache.Blob)
	return blob, args.Error(1)
}

func newMockSources() (*MockSource, *MockSource, *MockSource) {
	return &MockSource{kind: metacache.KindVDF}, &MockSource{kind: metacache.KindWeb}, &MockSource{kind: metacache.KindStore}
}

func TestLoader_Load(t *testing.T) {
	vdfSrc, webSrc, storeSrc := newMockSources()
	vdfSrc.On("Fetch", "620").Return(metacache.Blob{"common": map[string]any{"name": "Portal 2"}}, nil).Once()
	webSrc.On("Fetch", "620").Return(metacache.Blob{"appid": "620"}, nil).Once()
	storeSrc.On("Fetch", "620").Return(metacache.Blob{"type": "game"}, nil).Once()

	loader := NewLoader(metacache.New(t.TempDir()), vdfSrc, webSrc, storeSrc)

	for i := 0; i < 2; i++ {
		info, err := loader.Load(context.Background(), "620")
		require.NoError(t, err)
		assert.Equal(t, "Portal 2", info.Name())
		assert.Equal(t, "620", info.Web["appid"])
		assert.Equal(t, "game", info.Store["type"])
	}

	vdfSrc.AssertNumberOfCalls(t, "Fetch", 1)
	webSrc.AssertNumberOfCalls(t, "Fetch", 1)
	storeSrc.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestLoader_FailureStopsAndIsRetried(t *testing.T) {
	vdfSrc, webSrc, storeSrc := newMockSources()
	vdfSrc.On("Fetch", "620").Return(metacache.Blob{}, nil).Once()
	webSrc.On("Fetch", "620").Return(nil, &FetchError{Source: metacache.KindWeb, AppID: "620", StatusCode: 500}).Once()
	webSrc.On("Fetch", "620").Return(metacache.Blob{}, nil).Once()
	storeSrc.On("Fetch", "620").Return(metacache.Blob{}, nil).Once()

	cache := metacache.New(t.TempDir())
	loader := NewLoader(cache, vdfSrc, webSrc, storeSrc)

	_, err := loader.Load(context.Background(), "620")
	assert.True(t, errors.Is(err, ErrFetch))
	storeSrc.AssertNotCalled(t, "Fetch", "620")
	assert.True(t, cache.Has("620", metacache.KindVDF))
	assert.False(t, cache.Has("620", metacache.KindWeb))

	_, err = loader.Load(context.Background(), "620")
	require.NoError(t, err)
	vdfSrc.AssertNumberOfCalls(t, "Fetch", 1)
	webSrc.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestInfo_NameFallback(t *testing.T) {
	info := &Info{AppID: "1"}
	assert.Equal(t, "?????", info.Name())
}

func TestParseAppID(t *testing.T) {
	id, err := ParseAppID("0620")
	require.NoError(t, err)
	assert.Equal(t, "620", id)

	for _, bad := range []string{"", "abc", "-1", "0", "99999999999"} {
		_, err := ParseAppID(bad)
		assert.Error(t, err, bad)
	}
}
