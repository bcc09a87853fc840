// Package approval implements the admin decision flow for flagged claims
// and the background poller that keeps the pending set fresh.
package approval

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// ErrDecisionInFlight means a decision request for the same approval id is
// still pending; the duplicate call is suppressed.
var ErrDecisionInFlight = eris.New("a decision for this approval is already in flight")

// Service submits approve/deny decisions, allowing at most one in-flight
// decision per approval id.
type Service struct {
	client crm.Client

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a Service.
func NewService(client crm.Client) *Service {
	return &Service{
		client:   client,
		inFlight: make(map[string]struct{}),
	}
}

// Pending fetches the current pending approvals.
func (s *Service) Pending(ctx context.Context) ([]crm.ApprovalRequest, error) {
	approvals, err := s.client.PendingApprovals(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "fetch pending approvals")
	}
	return approvals, nil
}

// Decide submits an approve or deny decision. A call for an approval id
// that already has a decision pending returns ErrDecisionInFlight without
// touching the network. Approval unlocks incentive accrual on the next
// computation; denial zeroes it permanently.
func (s *Service) Decide(ctx context.Context, approvalID string, action crm.ApprovalStatus) error {
	if action != crm.ApprovalApproved && action != crm.ApprovalDenied {
		return eris.Errorf("invalid decision %q, want approved or denied", action)
	}

	s.mu.Lock()
	if _, busy := s.inFlight[approvalID]; busy {
		s.mu.Unlock()
		return ErrDecisionInFlight
	}
	s.inFlight[approvalID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, approvalID)
		s.mu.Unlock()
	}()

	if err := s.client.DecideApproval(ctx, approvalID, action); err != nil {
		return eris.Wrapf(err, "decide approval %s", approvalID)
	}
	return nil
}
