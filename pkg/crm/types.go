package crm

import "time"

// BookingStatus is the lifecycle state of a lead's booking.
type BookingStatus string

const (
	StatusScheduled BookingStatus = "scheduled"
	StatusPaid      BookingStatus = "paid"
	StatusCompleted BookingStatus = "completed"
	StatusCanceled  BookingStatus = "canceled"
	StatusNoShow    BookingStatus = "no-show"
	StatusIgnored   BookingStatus = "ignored"
)

// PlanName is one of the four product tiers.
type PlanName string

const (
	PlanPrime        PlanName = "PRIME"
	PlanIgnite       PlanName = "IGNITE"
	PlanProfessional PlanName = "PROFESSIONAL"
	PlanExecutive    PlanName = "EXECUTIVE"
)

// PlanOptions lists the product tiers with their reference USD prices.
var PlanOptions = []struct {
	Name     PlanName
	PriceUSD float64
}{
	{PlanPrime, 119},
	{PlanIgnite, 199},
	{PlanProfessional, 349},
	{PlanExecutive, 599},
}

// ApprovalStatus is the admin review state of a claimed lead.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

// PaymentPlan is the plan attached to a lead when it converts.
type PaymentPlan struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency,omitempty"`
	DisplayPrice string  `json:"displayPrice,omitempty"`
}

// ClaimedBy records which BDA owns a lead.
type ClaimedBy struct {
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
}

// Lead is a booking record tracked from scheduling through payment.
type Lead struct {
	BookingID               string         `json:"bookingId"`
	ClientName              string         `json:"clientName"`
	ClientEmail             string         `json:"clientEmail"`
	ClientPhone             string         `json:"clientPhone,omitempty"`
	ScheduledEventStartTime *time.Time     `json:"scheduledEventStartTime,omitempty"`
	BookingStatus           BookingStatus  `json:"bookingStatus"`
	PaymentPlan             *PaymentPlan   `json:"paymentPlan,omitempty"`
	MeetingNotes            string         `json:"meetingNotes,omitempty"`
	AnythingToKnow          string         `json:"anythingToKnow,omitempty"`
	ClaimedBy               *ClaimedBy     `json:"claimedBy,omitempty"`
	BdaApprovalStatus       ApprovalStatus `json:"bdaApprovalStatus,omitempty"`
	BdaApprovalID           string         `json:"bdaApprovalId,omitempty"`
}

// Claimed reports whether any BDA currently owns the lead.
func (l *Lead) Claimed() bool {
	return l.ClaimedBy != nil && l.ClaimedBy.Email != ""
}

// LeadUpdate carries the editable lead fields for PUT update-lead.
// Nil pointers are omitted so the server leaves those fields untouched.
type LeadUpdate struct {
	ClientName              *string      `json:"clientName,omitempty"`
	ClientPhone             *string      `json:"clientPhone,omitempty"`
	ScheduledEventStartTime *time.Time   `json:"scheduledEventStartTime,omitempty"`
	PaymentPlan             *PaymentPlan `json:"paymentPlan,omitempty"`
	MeetingNotes            *string      `json:"meetingNotes,omitempty"`
	AnythingToKnow          *string      `json:"anythingToKnow,omitempty"`
}

// IncentiveConfigEntry is one (plan, currency) row of the incentive table.
type IncentiveConfigEntry struct {
	PlanName         string  `json:"planName"`
	Currency         string  `json:"currency,omitempty"`
	BasePrice        float64 `json:"basePrice,omitempty"`
	BasePriceUSD     float64 `json:"basePriceUsd,omitempty"`
	PerLeadINR       float64 `json:"incentivePerLeadInr,omitempty"`
	IncentivePercent float64 `json:"incentivePercent,omitempty"`
}

// ApprovalRequest is a claim flagged for admin review.
type ApprovalRequest struct {
	ApprovalID  string    `json:"approvalId"`
	BookingID   string    `json:"bookingId"`
	BdaEmail    string    `json:"bdaEmail"`
	BdaName     string    `json:"bdaName,omitempty"`
	ClientName  string    `json:"clientName,omitempty"`
	ClientEmail string    `json:"clientEmail,omitempty"`
	ClientPhone string    `json:"clientPhone,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Pagination is the paging block of list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// BdaPerformance is one row of the admin analysis ranking.
type BdaPerformance struct {
	BdaEmail   string  `json:"bdaEmail"`
	BdaName    string  `json:"bdaName,omitempty"`
	TotalLeads int     `json:"totalLeads"`
	PaidLeads  int     `json:"paidLeads"`
	Revenue    float64 `json:"revenue"`
}

// AnalysisReport is the GET /api/bda/analysis payload.
type AnalysisReport struct {
	TotalLeads      int              `json:"totalLeads"`
	ClaimedLeads    int              `json:"claimedLeads"`
	PaidLeads       int              `json:"paidLeads"`
	StatusBreakdown map[string]int   `json:"statusBreakdown,omitempty"`
	BdaPerformance  []BdaPerformance `json:"bdaPerformance,omitempty"`
}

// AnalysisFilter narrows the admin analysis query.
type AnalysisFilter struct {
	From     string
	To       string
	Status   string
	PlanName string
	BdaEmail string
}

// MeetingLink is one row of the meeting recordings listing.
type MeetingLink struct {
	BookingID       string     `json:"bookingId"`
	ClientName      string     `json:"clientName"`
	DateOfMeet      *time.Time `json:"dateOfMeet,omitempty"`
	MeetingVideoURL string     `json:"meetingVideoUrl,omitempty"`
}

// ContactStatus reports whether a contact has paid. The contact
// endpoints skip the response envelope and use these keys directly.
type ContactStatus struct {
	ContactID string `json:"id,omitempty"`
	Paid      bool   `json:"isPaid"`
}
