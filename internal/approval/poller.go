package approval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// DefaultPollInterval matches the dashboard's pending-approvals refresh.
const DefaultPollInterval = 60 * time.Second

// Poller periodically fetches pending approvals and hands each batch to a
// callback. It is scoped to the context passed to Run and stops cleanly on
// cancel; fetch errors are logged and the next tick retries.
type Poller struct {
	service  *Service
	interval time.Duration
	onBatch  func([]crm.ApprovalRequest)
}

// NewPoller creates a Poller. A non-positive interval falls back to
// DefaultPollInterval.
func NewPoller(service *Service, interval time.Duration, onBatch func([]crm.ApprovalRequest)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{service: service, interval: interval, onBatch: onBatch}
}

// Run polls until ctx ends, fetching once immediately. It always returns
// ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	approvals, err := p.service.Pending(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		zap.L().Warn("pending approvals poll failed", zap.Error(err))
		return
	}
	zap.L().Debug("pending approvals polled", zap.Int("count", len(approvals)))
	if p.onBatch != nil {
		p.onBatch(approvals)
	}
}
