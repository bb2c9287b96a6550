package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCleaner struct {
	mock.Mock
}

func (m *mockCleaner) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

func TestAuditCleanupWorker_RunsUntilCancelled(t *testing.T) {
	cleaner := new(mockCleaner)
	ctx, cancel := context.WithCancel(context.Background())

	cleaner.On("Cleanup", mock.Anything, 90*24*time.Hour).
		Return(int64(3), nil).
		Run(func(mock.Arguments) { cancel() }).
		Once()

	done := make(chan struct{})
	go func() {
		NewAuditCleanupWorker(cleaner, 90, time.Hour).Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	cleaner.AssertExpectations(t)
}

func TestAuditCleanupWorker_KeepsGoingAfterError(t *testing.T) {
	cleaner := new(mockCleaner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 4)
	cleaner.On("Cleanup", mock.Anything, 24*time.Hour).
		Return(int64(0), assert.AnError).
		Run(func(mock.Arguments) {
			select {
			case calls <- struct{}{}:
			default:
			}
		})

	go NewAuditCleanupWorker(cleaner, 1, 10*time.Millisecond).Start(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected cleanup call %d", i+1)
		}
	}
}
