package dbconn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolveFiresOnce(t *testing.T) {
	f := newFuture()
	f.resolve(`first`, nil)
	f.resolve(`second`, errors.New(`ignored`))

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `first`, v)
}

func TestFuture_WaitObservesError(t *testing.T) {
	f := newFuture()
	wantErr := errors.New(`boom`)
	f.resolve(nil, wantErr)

	v, err := f.Wait(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, wantErr, err)
}

func TestFuture_WaitManyObservers(t *testing.T) {
	f := newFuture()
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			v, err := f.Wait(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, `payload`, v)
			done <- struct{}{}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	f.resolve(`payload`, nil)

	for i := 0; i < 4; i++ {
		<-done
	}
}

func TestFuture_WaitContextCanceledDoesNotResolveFuture(t *testing.T) {
	f := newFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := f.Wait(ctx)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, context.Canceled)

	// the future itself is still pending; a second, uncancelled Wait still
	// observes the eventual resolution.
	f.resolve(`late`, nil)
	v, err = f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `late`, v)
}
