package kpi

import (
	"context"
	"testing"
	"time"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_NewerBeginSupersedes(t *testing.T) {
	tr := NewTracker()

	firstCtx, first := tr.Begin(context.Background(), "view-1")
	assert.True(t, first.Current())

	_, second := tr.Begin(context.Background(), "view-1")
	defer second.Done()

	assert.False(t, first.Current())
	assert.True(t, second.Current())
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)

	first.Done()
	assert.True(t, second.Current(), "finishing a stale ticket must not drop the newer one")
}

func TestTracker_KeysAreIndependent(t *testing.T) {
	tr := NewTracker()

	ctxA, a := tr.Begin(context.Background(), "view-a")
	_, b := tr.Begin(context.Background(), "view-b")
	defer a.Done()
	defer b.Done()

	assert.True(t, a.Current())
	assert.True(t, b.Current())
	assert.NoError(t, ctxA.Err())
}

func TestLatest(t *testing.T) {
	tr := NewTracker()

	t.Run("single request returns result", func(t *testing.T) {
		v, err := Latest(context.Background(), tr, "view", func(ctx context.Context) (int, error) {
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("stale request is discarded", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		staleErr := make(chan error, 1)

		go func() {
			_, err := Latest(context.Background(), tr, "view", func(ctx context.Context) (string, error) {
				close(started)
				<-release
				return "stale", nil
			})
			staleErr <- err
		}()

		<-started
		v, err := Latest(context.Background(), tr, "view", func(ctx context.Context) (string, error) {
			return "fresh", nil
		})
		close(release)

		require.NoError(t, err)
		assert.Equal(t, "fresh", v)

		select {
		case err := <-staleErr:
			assert.ErrorIs(t, err, models.ErrSuperseded)
		case <-time.After(2 * time.Second):
			t.Fatal("stale request did not finish")
		}
	})
}
