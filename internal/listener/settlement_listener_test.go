package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"pix-withdraw-go/internal/lock"
	"pix-withdraw-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	mu      sync.Mutex
	calls   int
	origins []string
	result  *models.SweepResult
}

func (s *countingSweeper) ProcessScheduledWithdraws(ctx context.Context) (*models.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if origin := models.GetWithdrawOrigin(ctx); origin != nil {
		s.origins = append(s.origins, origin.Channel)
	}
	if s.result != nil {
		return s.result, nil
	}
	return &models.SweepResult{Errors: []models.SweepError{}}, nil
}

func (s *countingSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// heldLocker never grants a lease.
type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string, time.Duration) (lock.Lease, error) {
	return nil, lock.ErrLockHeld
}

func (heldLocker) Close() error { return nil }

func TestSweepOnceTagsSettlementOrigin(t *testing.T) {
	sweeper := &countingSweeper{result: &models.SweepResult{
		Processed: 1,
		Failed:    1,
		Errors:    []models.SweepError{{WithdrawId: "w-1", Error: "Insufficient balance"}},
	}}
	l := NewSettlementListener(SettlementListenerConfig{Sweeper: sweeper})

	result := l.SweepOnce(context.Background())
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, []string{models.OriginSettlement}, sweeper.origins)
}

func TestSweepOnceSkipsWhenLockHeld(t *testing.T) {
	sweeper := &countingSweeper{}
	l := NewSettlementListener(SettlementListenerConfig{Sweeper: sweeper, Locker: heldLocker{}})

	assert.Nil(t, l.SweepOnce(context.Background()))
	assert.Equal(t, 0, sweeper.count())
}

func TestListenerPollsUntilStopped(t *testing.T) {
	sweeper := &countingSweeper{}
	l := NewSettlementListener(SettlementListenerConfig{
		Sweeper:         sweeper,
		PollingInterval: 10 * time.Millisecond,
	})

	require.NoError(t, l.Start(context.Background()))
	assert.Eventually(t, func() bool { return sweeper.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	l.Stop()

	stopped := sweeper.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, sweeper.count())
}

func TestListenerRequiresSweeper(t *testing.T) {
	l := NewSettlementListener(SettlementListenerConfig{})
	assert.Error(t, l.Start(context.Background()))
}
