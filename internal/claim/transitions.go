// Package claim implements the lead claim and booking status rules: which
// transitions are legal, who may perform them, and which are gated behind
// an explicit confirmation.
package claim

import "github.com/sohith73/flashfire-CRM/pkg/crm"

// transitions maps each status to the statuses it may move to. Statuses
// absent from the map are terminal as far as this client is concerned; the
// server may allow more.
var transitions = map[crm.BookingStatus][]crm.BookingStatus{
	crm.StatusScheduled: {
		crm.StatusPaid,
		crm.StatusCompleted,
		crm.StatusCanceled,
		crm.StatusNoShow,
		crm.StatusIgnored,
	},
	crm.StatusPaid: {
		crm.StatusCompleted,
	},
}

// adminOnly lists target statuses only admins may set.
var adminOnly = map[crm.BookingStatus]bool{
	crm.StatusCanceled: true,
	crm.StatusNoShow:   true,
	crm.StatusIgnored:  true,
}

// CanTransition reports whether a booking may move from one status to
// another.
func CanTransition(from, to crm.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed from the
// given status.
func Terminal(status crm.BookingStatus) bool {
	return len(transitions[status]) == 0
}

// AdminOnly reports whether setting the given status requires admin
// access.
func AdminOnly(status crm.BookingStatus) bool {
	return adminOnly[status]
}

// ValidStatus reports whether the string is a known booking status.
func ValidStatus(s string) bool {
	switch crm.BookingStatus(s) {
	case crm.StatusScheduled, crm.StatusPaid, crm.StatusCompleted,
		crm.StatusCanceled, crm.StatusNoShow, crm.StatusIgnored:
		return true
	}
	return false
}
