package session

import (
	"context"
	"errors"
	"testing"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBrandLoader is a mock implementation of BrandLoader
type MockBrandLoader struct {
	mock.Mock
}

func (m *MockBrandLoader) GetBrandByUser(ctx context.Context, userID string) (*models.Brand, error) {
	args := m.Called(ctx, userID)
	if b := args.Get(0); b != nil {
		return b.(*models.Brand), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, userID string) (BrandContext, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(BrandContext), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, userID string, bc BrandContext) error {
	args := m.Called(ctx, userID, bc)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var techCorp = &models.Brand{
	BrandID:   "brand-1",
	BrandName: "TechCorp",
	Industry:  "Tech",
	Website:   "https://techcorp.example",
	UserID:    "user-1",
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips store", func(t *testing.T) {
		store := &MockBrandLoader{}
		cache := &MockCache{}
		cached := FromBrand(*techCorp)
		cache.On("Get", ctx, "user-1").Return(cached, true, nil)

		bc, err := NewResolver(store, cache).Resolve(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, cached, bc)
		store.AssertNotCalled(t, "GetBrandByUser", mock.Anything, mock.Anything)
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		store := &MockBrandLoader{}
		cache := &MockCache{}
		cache.On("Get", ctx, "user-1").Return(BrandContext{}, false, nil)
		store.On("GetBrandByUser", ctx, "user-1").Return(techCorp, nil)
		cache.On("Set", ctx, "user-1", FromBrand(*techCorp)).Return(nil)

		bc, err := NewResolver(store, cache).Resolve(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "TechCorp", bc.BrandName)
		cache.AssertExpectations(t)
	})

	t.Run("cache failure falls through to store", func(t *testing.T) {
		store := &MockBrandLoader{}
		cache := &MockCache{}
		cache.On("Get", ctx, "user-1").Return(BrandContext{}, false, errors.New("connection refused"))
		store.On("GetBrandByUser", ctx, "user-1").Return(techCorp, nil)
		cache.On("Set", ctx, "user-1", mock.Anything).Return(errors.New("connection refused"))

		bc, err := NewResolver(store, cache).Resolve(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "brand-1", bc.BrandID)
	})

	t.Run("no cache", func(t *testing.T) {
		store := &MockBrandLoader{}
		store.On("GetBrandByUser", ctx, "user-1").Return(techCorp, nil)

		bc, err := NewResolver(store, nil).Resolve(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", bc.UserID)
	})

	t.Run("brand missing", func(t *testing.T) {
		store := &MockBrandLoader{}
		store.On("GetBrandByUser", ctx, "user-2").Return(nil, models.ErrBrandNotFound)

		_, err := NewResolver(store, nil).Resolve(ctx, "user-2")
		assert.ErrorIs(t, err, models.ErrBrandNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		store := &MockBrandLoader{}
		store.On("GetBrandByUser", ctx, "user-1").Return(nil, errors.New("timeout"))

		_, err := NewResolver(store, nil).Resolve(ctx, "user-1")
		assert.ErrorIs(t, err, models.ErrFetchFailure)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := NewResolver(&MockBrandLoader{}, nil).Resolve(ctx, "")
		assert.ErrorIs(t, err, models.ErrAuthRequired)
	})
}

func TestResolver_Invalidate(t *testing.T) {
	ctx := context.Background()

	cache := &MockCache{}
	cache.On("Delete", ctx, "user-1").Return(nil)
	require.NoError(t, NewResolver(&MockBrandLoader{}, cache).Invalidate(ctx, "user-1"))
	cache.AssertExpectations(t)

	assert.NoError(t, NewResolver(&MockBrandLoader{}, nil).Invalidate(ctx, "user-1"))

	failing := &MockCache{}
	failing.On("Delete", ctx, "user-1").Return(errors.New("down"))
	assert.Error(t, NewResolver(&MockBrandLoader{}, failing).Invalidate(ctx, "user-1"))
}
