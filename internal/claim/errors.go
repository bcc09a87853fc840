package claim

import "github.com/rotisserie/eris"

var (
	// ErrNoLead means an operation needs a searched lead first.
	ErrNoLead = eris.New("no lead loaded, search first")

	// ErrPlanRequired means a move to paid lacked a plan name or a
	// positive amount. Raised before any network call.
	ErrPlanRequired = eris.New("a payment plan with a positive amount is required before marking paid")

	// ErrNotClaimant means someone other than the claiming BDA tried to
	// edit a claimed lead.
	ErrNotClaimant = eris.New("lead is claimed by another BDA")

	// ErrAdminOnly marks operations and statuses reserved for admins.
	ErrAdminOnly = eris.New("admin access required")

	// ErrDeclined means the user rejected the confirmation prompt.
	ErrDeclined = eris.New("confirmation declined")
)

// InvalidTransitionError reports a booking status move the rules forbid.
type InvalidTransitionError struct {
	From, To string
}

func (e *InvalidTransitionError) Error() string {
	return "invalid status transition " + e.From + " -> " + e.To
}
