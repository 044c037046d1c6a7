package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-scan-login/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, opts Options) *Registry {
	t.Helper()
	r := NewRegistry(opts)
	t.Cleanup(r.Close)
	return r
}

func TestBegin_ThenPoll_IsPending(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()

	a, err := r.Begin(ctx, 42, "T1")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, domain.LoginStatusPending, a.Status)

	st := r.Poll(ctx, "T1")
	assert.Equal(t, domain.LoginStatusPending, st.Status)
	assert.Equal(t, a.ID, st.AttemptID)
	assert.Empty(t, st.OpenID)
	assert.Equal(t, 1, r.Len())
}

func TestPoll_UnknownTicket(t *testing.T) {
	r := newTestRegistry(t, Options{})
	st := r.Poll(context.Background(), "nope")
	assert.Equal(t, domain.LoginStatusUnknown, st.Status)
	assert.False(t, st.Resolved())
}

func TestResolveByScene_ThenPoll_IsResolved(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()
	_, err := r.Begin(ctx, 42, "T1")
	require.NoError(t, err)

	out, err := r.ResolveByScene(ctx, "42", "U1")
	require.NoError(t, err)
	assert.Equal(t, "T1", out.Ticket)
	assert.Equal(t, "U1", out.OpenID)
	assert.False(t, out.AlreadyResolved)

	st := r.Poll(ctx, "T1")
	assert.Equal(t, domain.LoginStatusResolved, st.Status)
	assert.Equal(t, "U1", st.OpenID)
	assert.True(t, st.Resolved())
}

func TestResolveByScene_UnknownScene(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()

	_, err := r.ResolveByScene(ctx, "42", "U1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.SceneInUse(42))
}

func TestResolveByScene_FirstWriteWins(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()
	_, err := r.Begin(ctx, 7, "T7")
	require.NoError(t, err)

	_, err = r.ResolveByScene(ctx, "7", "first")
	require.NoError(t, err)
	out, err := r.ResolveByScene(ctx, "7", "second")
	require.NoError(t, err)

	assert.True(t, out.AlreadyResolved)
	assert.Equal(t, "first", out.OpenID)
	assert.Equal(t, "first", r.Poll(ctx, "T7").OpenID)
}

func TestResolveByScene_EmptyOpenID(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()
	_, err := r.Begin(ctx, 7, "T7")
	require.NoError(t, err)

	_, err = r.ResolveByScene(ctx, "7", "")

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Equal(t, domain.LoginStatusPending, r.Poll(ctx, "T7").Status)
}

func TestResolveByScene_UnknownSceneWithoutSender(t *testing.T) {
	r := newTestRegistry(t, Options{})

	_, err := r.ResolveByScene(context.Background(), "999", "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestBegin_DuplicateTicket(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()
	_, err := r.Begin(ctx, 1, "T1")
	require.NoError(t, err)

	_, err = r.Begin(ctx, 2, "T1")

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.False(t, r.SceneInUse(2))
}

func TestBegin_SceneInUse(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()
	_, err := r.Begin(ctx, 1, "T1")
	require.NoError(t, err)

	_, err = r.Begin(ctx, 1, "T2")

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, r.SceneInUse(1))
	assert.Equal(t, domain.LoginStatusUnknown, r.Poll(ctx, "T2").Status)
}

func TestBegin_InvalidArguments(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()

	_, err := r.Begin(ctx, 0, "T1")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	_, err = r.Begin(ctx, 1, "")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestResolveRacingPoll_NeverTorn(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()
	const n = 100
	for i := 1; i <= n; i++ {
		_, err := r.Begin(ctx, int32(i), fmt.Sprintf("T%d", i))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		scene, ticket, user := fmt.Sprint(i), fmt.Sprintf("T%d", i), fmt.Sprintf("U%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			st := r.Poll(ctx, ticket)
			switch st.Status {
			case domain.LoginStatusPending:
				assert.Empty(t, st.OpenID)
			case domain.LoginStatusResolved:
				assert.Equal(t, user, st.OpenID)
			default:
				t.Errorf("unexpected status %v for %s", st.Status, ticket)
			}
		}()
		go func() {
			defer wg.Done()
			_, err := r.ResolveByScene(ctx, scene, user)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := 1; i <= n; i++ {
		st := r.Poll(ctx, fmt.Sprintf("T%d", i))
		assert.Equal(t, domain.LoginStatusResolved, st.Status)
		assert.Equal(t, fmt.Sprintf("U%d", i), st.OpenID)
	}
}

func TestConcurrentResolveSameScene_OneWinner(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()
	_, err := r.Begin(ctx, 9, "T9")
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	for i := 0; i < 20; i++ {
		user := fmt.Sprintf("U%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.ResolveByScene(ctx, "9", user)
			assert.NoError(t, err)
			if !out.AlreadyResolved {
				mu.Lock()
				winners = append(winners, user)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, winners[0], r.Poll(ctx, "T9").OpenID)
}

func TestSweep_EvictsExpiredOnly(t *testing.T) {
	r := newTestRegistry(t, Options{TTL: time.Minute, SweepInterval: time.Hour})
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r.now = func() time.Time { return base }
	_, err := r.Begin(ctx, 1, "old")
	require.NoError(t, err)
	r.now = func() time.Time { return base.Add(45 * time.Second) }
	_, err = r.Begin(ctx, 2, "new")
	require.NoError(t, err)

	removed := r.Sweep(base.Add(61 * time.Second))

	assert.Equal(t, 1, removed)
	assert.Equal(t, domain.LoginStatusUnknown, r.Poll(ctx, "old").Status)
	assert.False(t, r.SceneInUse(1))
	assert.Equal(t, domain.LoginStatusPending, r.Poll(ctx, "new").Status)
	_, err = r.ResolveByScene(ctx, "1", "U1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSweep_DisabledWithoutTTL(t *testing.T) {
	r := newTestRegistry(t, Options{})
	ctx := context.Background()
	_, err := r.Begin(ctx, 1, "T1")
	require.NoError(t, err)

	assert.Equal(t, 0, r.Sweep(time.Now().Add(365*24*time.Hour)))
	assert.Equal(t, domain.LoginStatusPending, r.Poll(ctx, "T1").Status)
}

func TestSweepLoop_RunsInBackground(t *testing.T) {
	r := NewRegistry(Options{TTL: time.Millisecond, SweepInterval: 5 * time.Millisecond})
	defer r.Close()
	_, err := r.Begin(context.Background(), 1, "T1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestClose_Idempotent(t *testing.T) {
	r := NewRegistry(Options{TTL: time.Minute, SweepInterval: time.Minute})
	r.Close()
	r.Close()
}
