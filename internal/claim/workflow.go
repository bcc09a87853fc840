package claim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sohith73/flashfire-CRM/internal/events"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// Actor identifies who is driving the workflow.
type Actor struct {
	Email string
	Name  string
	Admin bool
}

// ConfirmFunc asks the user to confirm a revenue-affecting action. It
// returns true to proceed.
type ConfirmFunc func(prompt string) (bool, error)

// AlwaysConfirm skips prompting, for --yes and non-interactive callers.
func AlwaysConfirm(string) (bool, error) { return true, nil }

// Workflow drives the claim lifecycle of one lead at a time: search,
// claim, edit, status transitions, unclaim. The server stays authoritative
// for claims; every local check exists only to fail fast or to stop
// invalid requests from going out at all.
type Workflow struct {
	client  crm.Client
	bus     *events.Bus
	actor   Actor
	confirm ConfirmFunc

	// seq orders requests so a slow response from a superseded request
	// cannot overwrite newer state.
	seq atomic.Uint64

	mu   sync.Mutex
	lead *crm.Lead
}

// NewWorkflow creates a Workflow. bus may be nil when no other views need
// refresh notifications.
func NewWorkflow(client crm.Client, bus *events.Bus, actor Actor, confirm ConfirmFunc) *Workflow {
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	return &Workflow{client: client, bus: bus, actor: actor, confirm: confirm}
}

// Lead returns the current lead snapshot, or nil before the first search.
func (w *Workflow) Lead() *crm.Lead {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lead
}

// begin marks the start of a request and returns its sequence number.
func (w *Workflow) begin() uint64 {
	return w.seq.Add(1)
}

// adopt stores the response lead unless a newer request has started since
// seq was issued. It reports whether the snapshot was taken.
func (w *Workflow) adopt(seq uint64, lead *crm.Lead) bool {
	if seq != w.seq.Load() {
		zap.L().Debug("discarding stale response",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", w.seq.Load()))
		return false
	}
	w.mu.Lock()
	w.lead = lead
	w.mu.Unlock()
	return true
}

// Search looks a lead up by client email and makes it the current lead.
func (w *Workflow) Search(ctx context.Context, email string) (*crm.Lead, error) {
	seq := w.begin()
	lead, err := w.client.LeadByEmail(ctx, email)
	if err != nil {
		return nil, eris.Wrap(err, "search lead")
	}
	w.adopt(seq, lead)
	return lead, nil
}

// Claim claims the current lead for the actor. The server is the claim
// authority: a lead already claimed by someone else is still submitted and
// the server's rejection is surfaced as the error.
func (w *Workflow) Claim(ctx context.Context) (*crm.Lead, error) {
	current := w.Lead()
	if current == nil {
		return nil, ErrNoLead
	}
	seq := w.begin()
	lead, err := w.client.ClaimLead(ctx, current.BookingID)
	if err != nil {
		return nil, eris.Wrap(err, "claim lead")
	}
	w.adopt(seq, lead)
	w.publish(lead.BookingID)
	return lead, nil
}

// Update edits the current lead. Only the claiming BDA, or an admin, may
// edit a claimed lead; that check runs locally before any request.
func (w *Workflow) Update(ctx context.Context, update crm.LeadUpdate) (*crm.Lead, error) {
	current := w.Lead()
	if current == nil {
		return nil, ErrNoLead
	}
	if current.Claimed() && current.ClaimedBy.Email != w.actor.Email && !w.actor.Admin {
		return nil, ErrNotClaimant
	}
	seq := w.begin()
	lead, err := w.client.UpdateLead(ctx, current.BookingID, update)
	if err != nil {
		return nil, eris.Wrap(err, "update lead")
	}
	w.adopt(seq, lead)
	return lead, nil
}

// SetStatus moves the current lead to a new booking status. Validation
// runs before any network call: the transition must be legal, admin-only
// statuses need an admin actor, and paid needs a plan with a positive
// amount. Paid also needs the user's confirmation since it triggers
// incentive accrual.
func (w *Workflow) SetStatus(ctx context.Context, status crm.BookingStatus, plan *crm.PaymentPlan) (*crm.Lead, error) {
	current := w.Lead()
	if current == nil {
		return nil, ErrNoLead
	}
	if !CanTransition(current.BookingStatus, status) {
		return nil, &InvalidTransitionError{From: string(current.BookingStatus), To: string(status)}
	}
	if AdminOnly(status) && !w.actor.Admin {
		return nil, ErrAdminOnly
	}
	if status == crm.StatusPaid {
		if plan == nil || plan.Name == "" || plan.Price <= 0 {
			return nil, ErrPlanRequired
		}
		ok, err := w.confirm(fmt.Sprintf("Mark %s as paid (%s %.2f %s)?",
			current.BookingID, plan.Name, plan.Price, planCurrency(plan)))
		if err != nil {
			return nil, eris.Wrap(err, "confirm paid")
		}
		if !ok {
			return nil, ErrDeclined
		}
	} else {
		plan = nil
	}

	seq := w.begin()
	lead, err := w.client.UpdateBookingStatus(ctx, current.BookingID, status, plan)
	if err != nil {
		return nil, eris.Wrap(err, "update booking status")
	}
	w.adopt(seq, lead)
	w.publish(lead.BookingID)
	return lead, nil
}

// Unclaim releases the current lead back to the claimable pool. Admin
// only, and irreversible, so it is confirmed first.
func (w *Workflow) Unclaim(ctx context.Context) error {
	current := w.Lead()
	if current == nil {
		return ErrNoLead
	}
	if !w.actor.Admin {
		return ErrAdminOnly
	}
	ok, err := w.confirm(fmt.Sprintf("Unclaim %s? The lead re-enters the claimable pool.", current.BookingID))
	if err != nil {
		return eris.Wrap(err, "confirm unclaim")
	}
	if !ok {
		return ErrDeclined
	}

	if err := w.client.UnclaimBooking(ctx, current.BookingID); err != nil {
		return eris.Wrap(err, "unclaim booking")
	}
	w.mu.Lock()
	if w.lead != nil && w.lead.BookingID == current.BookingID {
		w.lead.ClaimedBy = nil
	}
	w.mu.Unlock()
	w.publish(current.BookingID)
	return nil
}

func (w *Workflow) publish(bookingID string) {
	if w.bus != nil {
		w.bus.Publish(events.Event{Kind: events.BookingUpdated, BookingID: bookingID})
	}
}

func planCurrency(p *crm.PaymentPlan) string {
	if p.Currency == "" {
		return "USD"
	}
	return p.Currency
}
