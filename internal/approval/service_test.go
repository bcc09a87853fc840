package approval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

type fakeClient struct {
	crm.Client

	mu      sync.Mutex
	decides int

	pending func(ctx context.Context) ([]crm.ApprovalRequest, error)
	decide  func(ctx context.Context, approvalID string, action crm.ApprovalStatus) error
}

func (f *fakeClient) PendingApprovals(ctx context.Context) ([]crm.ApprovalRequest, error) {
	return f.pending(ctx)
}

func (f *fakeClient) DecideApproval(ctx context.Context, approvalID string, action crm.ApprovalStatus) error {
	f.mu.Lock()
	f.decides++
	f.mu.Unlock()
	return f.decide(ctx, approvalID, action)
}

func (f *fakeClient) decideCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decides
}

func TestService_Decide(t *testing.T) {
	t.Parallel()

	t.Run("submits decision", func(t *testing.T) {
		t.Parallel()
		fc := &fakeClient{
			decide: func(_ context.Context, approvalID string, action crm.ApprovalStatus) error {
				assert.Equal(t, "ap-1", approvalID)
				assert.Equal(t, crm.ApprovalApproved, action)
				return nil
			},
		}
		svc := NewService(fc)
		require.NoError(t, svc.Decide(context.Background(), "ap-1", crm.ApprovalApproved))
		assert.Equal(t, 1, fc.decideCount())
	})

	t.Run("rejects unknown action without a request", func(t *testing.T) {
		t.Parallel()
		fc := &fakeClient{}
		svc := NewService(fc)
		require.Error(t, svc.Decide(context.Background(), "ap-1", "maybe"))
		assert.Zero(t, fc.decideCount())
	})

	t.Run("surfaces server error and releases the slot", func(t *testing.T) {
		t.Parallel()
		calls := 0
		fc := &fakeClient{
			decide: func(context.Context, string, crm.ApprovalStatus) error {
				calls++
				if calls == 1 {
					return errors.New("gateway timeout")
				}
				return nil
			},
		}
		svc := NewService(fc)
		require.Error(t, svc.Decide(context.Background(), "ap-1", crm.ApprovalDenied))
		require.NoError(t, svc.Decide(context.Background(), "ap-1", crm.ApprovalDenied))
	})
}

func TestService_Decide_SuppressesReentrantCalls(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce sync.Once
	fc := &fakeClient{
		decide: func(context.Context, string, crm.ApprovalStatus) error {
			startOnce.Do(func() { close(started) })
			<-release
			return nil
		},
	}
	svc := NewService(fc)

	done := make(chan error, 1)
	go func() {
		done <- svc.Decide(context.Background(), "ap-1", crm.ApprovalApproved)
	}()
	<-started

	// Same id while in flight is suppressed; a different id is not.
	assert.ErrorIs(t, svc.Decide(context.Background(), "ap-1", crm.ApprovalDenied), ErrDecisionInFlight)

	go func() { close(release) }()
	require.NoError(t, <-done)
	assert.Equal(t, 1, fc.decideCount())

	// After completion the id is free again.
	require.NoError(t, svc.Decide(context.Background(), "ap-1", crm.ApprovalApproved))
}

func TestPoller_Run(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	batches := 0
	fc := &fakeClient{
		pending: func(context.Context) ([]crm.ApprovalRequest, error) {
			return []crm.ApprovalRequest{{ApprovalID: "ap-1"}}, nil
		},
	}
	poller := NewPoller(NewService(fc), 20*time.Millisecond, func(approvals []crm.ApprovalRequest) {
		mu.Lock()
		batches++
		mu.Unlock()
		assert.Len(t, approvals, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	// First fetch is immediate, then the ticker takes over.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return batches >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}

func TestPoller_FetchErrorsAreSkipped(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0
	batches := 0
	fc := &fakeClient{
		pending: func(context.Context) ([]crm.ApprovalRequest, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls%2 == 1 {
				return nil, errors.New("bad gateway")
			}
			return nil, nil
		},
	}
	poller := NewPoller(NewService(fc), 10*time.Millisecond, func([]crm.ApprovalRequest) {
		mu.Lock()
		batches++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	// Failing cycles are skipped, succeeding ones still reach the callback.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return batches >= 2 && calls > batches
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	t.Parallel()

	p := NewPoller(NewService(&fakeClient{}), 0, nil)
	assert.Equal(t, DefaultPollInterval, p.interval)
}
