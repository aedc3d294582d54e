package memory

import (
	"context"
	"testing"
	"time"

	"assistance-gateway/internal/domain/wizard"
	xerrors "assistance-gateway/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreReturnsCopies(t *testing.T) {
	store := NewWizardSessionStore(time.Minute)
	ctx := context.Background()

	sess := &wizard.Session{ID: "s1", Step: wizard.StepDetails}
	require.NoError(t, store.Save(ctx, sess))
	sess.Step = wizard.StepConfirm

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, wizard.StepDetails, got.Step)
}

func TestStoreExpiry(t *testing.T) {
	store := NewWizardSessionStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &wizard.Session{ID: "s1"}))
	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestSaveEvictsExpiredSessions(t *testing.T) {
	store := NewWizardSessionStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &wizard.Session{ID: "s1"}))
	require.NoError(t, store.Save(ctx, &wizard.Session{ID: "s2"}))
	assert.Len(t, store.sessions, 2)

	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, &wizard.Session{ID: "s3"}))
	assert.Len(t, store.sessions, 1)
	assert.Contains(t, store.sessions, "s3")
}

func TestStoreLock(t *testing.T) {
	store := NewWizardSessionStore(time.Minute)
	ctx := context.Background()

	release, err := store.Lock(ctx, "s1")
	require.NoError(t, err)

	_, err = store.Lock(ctx, "s1")
	assert.ErrorIs(t, err, xerrors.ErrOperationInFlight)

	_, err = store.Lock(ctx, "s2")
	assert.NoError(t, err)

	release()
	release()
	_, err = store.Lock(ctx, "s1")
	assert.NoError(t, err)
}
