package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of the storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, name string, data []byte) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

func (m *MockStorage) Retrieve(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func TestDigestArchive_Save(t *testing.T) {
	ctx := context.Background()
	store := &MockStorage{}
	digest := &models.Digest{
		GeneratedAt: time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC),
		Schedule:    "daily",
		Period:      "lastweek",
	}

	store.On("Store", ctx, "digests/2025-06-16T09-00-00Z-daily.json", mock.MatchedBy(func(data []byte) bool {
		var decoded models.Digest
		return json.Unmarshal(data, &decoded) == nil && decoded.Period == "lastweek"
	})).Return(nil)

	name, err := NewDigestArchive(store).Save(ctx, digest)
	require.NoError(t, err)
	assert.Equal(t, "digests/2025-06-16T09-00-00Z-daily.json", name)
	store.AssertExpectations(t)
}

func TestDigestArchive_Latest(t *testing.T) {
	ctx := context.Background()

	t.Run("picks the newest name", func(t *testing.T) {
		store := &MockStorage{}
		store.On("List", ctx, "digests/").Return([]string{
			"digests/2025-06-16T09-00-00Z-daily.json",
			"digests/2025-06-17T09-00-00Z-daily.json",
			"digests/2025-06-15T09-00-00Z-daily.json",
			"digests/notes.txt",
		}, nil)
		store.On("Retrieve", ctx, "digests/2025-06-17T09-00-00Z-daily.json").
			Return([]byte(`{"schedule":"daily","period":"lastmonth"}`), nil)

		digest, err := NewDigestArchive(store).Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "lastmonth", digest.Period)
	})

	t.Run("empty archive", func(t *testing.T) {
		store := &MockStorage{}
		store.On("List", ctx, "digests/").Return([]string{}, nil)

		_, err := NewDigestArchive(store).Latest(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("corrupt blob", func(t *testing.T) {
		store := &MockStorage{}
		store.On("List", ctx, "digests/").Return([]string{"digests/a.json"}, nil)
		store.On("Retrieve", ctx, "digests/a.json").Return([]byte("{"), nil)

		_, err := NewDigestArchive(store).Latest(ctx)
		assert.Error(t, err)
	})
}

func TestDigestArchive_Prune(t *testing.T) {
	ctx := context.Background()
	store := &MockStorage{}
	store.On("List", ctx, "digests/").Return([]string{
		"digests/2025-06-03T09-00-00Z-daily.json",
		"digests/2025-06-01T09-00-00Z-daily.json",
		"digests/2025-06-04T09-00-00Z-daily.json",
		"digests/2025-06-02T09-00-00Z-daily.json",
	}, nil)
	store.On("Delete", ctx, "digests/2025-06-01T09-00-00Z-daily.json").Return(nil)
	store.On("Delete", ctx, "digests/2025-06-02T09-00-00Z-daily.json").Return(errors.New("lease held"))

	removed, err := NewDigestArchive(store).Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	store.AssertNotCalled(t, "Delete", ctx, "digests/2025-06-04T09-00-00Z-daily.json")
	store.AssertNotCalled(t, "Delete", ctx, "digests/2025-06-03T09-00-00Z-daily.json")
}

func TestDigestArchive_Prune_AlreadyRemoved(t *testing.T) {
	ctx := context.Background()
	store := &MockStorage{}
	store.On("List", ctx, "digests/").Return([]string{
		"digests/2025-06-01T09-00-00Z-daily.json",
		"digests/2025-06-02T09-00-00Z-daily.json",
		"digests/2025-06-03T09-00-00Z-daily.json",
	}, nil)
	store.On("Delete", ctx, "digests/2025-06-01T09-00-00Z-daily.json").Return(ErrNotFound)
	store.On("Delete", ctx, "digests/2025-06-02T09-00-00Z-daily.json").Return(nil)

	removed, err := NewDigestArchive(store).Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	store.AssertExpectations(t)
}
