package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohith73/flashfire-CRM/internal/claim"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// fakeAPI implements the parts of crm.Client the dashboard handlers use.
type fakeAPI struct {
	crm.Client

	lead      *crm.Lead
	leadErr   error
	myLeads   []crm.Lead
	pending   []crm.ApprovalRequest
	decideErr error
	configs   []crm.IncentiveConfigEntry
}

func (f *fakeAPI) LeadByEmail(context.Context, string) (*crm.Lead, error) {
	return f.lead, f.leadErr
}

func (f *fakeAPI) ClaimLead(ctx context.Context, bookingID string) (*crm.Lead, error) {
	if f.leadErr != nil {
		return nil, f.leadErr
	}
	return f.lead, nil
}

func (f *fakeAPI) MyLeads(context.Context, int, int) ([]crm.Lead, *crm.Pagination, error) {
	return f.myLeads, &crm.Pagination{Page: 1, Limit: 100, Total: len(f.myLeads), Pages: 1}, nil
}

func (f *fakeAPI) UpdateBookingStatus(ctx context.Context, bookingID string, status crm.BookingStatus, plan *crm.PaymentPlan) (*crm.Lead, error) {
	lead := &crm.Lead{BookingID: bookingID, BookingStatus: status, PaymentPlan: plan}
	return lead, nil
}

func (f *fakeAPI) PendingApprovals(context.Context) ([]crm.ApprovalRequest, error) {
	return f.pending, nil
}

func (f *fakeAPI) DecideApproval(context.Context, string, crm.ApprovalStatus) error {
	return f.decideErr
}

func (f *fakeAPI) IncentiveConfig(context.Context) ([]crm.IncentiveConfigEntry, error) {
	return f.configs, nil
}

func newTestDashboard(api *fakeAPI, admin bool) *dashboard {
	return newDashboard(api, claim.Actor{Email: "bda@flashfirejobs.com", Admin: admin})
}

func TestHealthEndpoint(t *testing.T) {
	d := newTestDashboard(&fakeAPI{}, false)

	rr := httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestLeadSearchEndpoint(t *testing.T) {
	d := newTestDashboard(&fakeAPI{
		lead: &crm.Lead{BookingID: "bk-1", ClientEmail: "asha@example.com"},
	}, false)

	rr := httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/leads?email=asha@example.com", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var lead crm.Lead
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lead))
	assert.Equal(t, "bk-1", lead.BookingID)
}

func TestLeadSearchEndpoint_MissingEmail(t *testing.T) {
	d := newTestDashboard(&fakeAPI{}, false)

	rr := httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/leads", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLeadSearchEndpoint_NotFound(t *testing.T) {
	d := newTestDashboard(&fakeAPI{
		leadErr: &crm.APIError{StatusCode: http.StatusNotFound, Body: "no lead"},
	}, false)

	rr := httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/leads?email=x@example.com", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestClaimEndpoint_ServerRejection(t *testing.T) {
	d := newTestDashboard(&fakeAPI{
		leadErr: &crm.RequestError{Op: "claim lead", Message: "already claimed"},
	}, false)

	rr := httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/leads/bk-1/claim", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already claimed")
}

func TestStatusEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		admin    bool
		body     map[string]any
		wantCode int
	}{
		{
			name:  "paid with plan",
			admin: false,
			body: map[string]any{
				"from": "scheduled", "status": "paid",
				"plan": map[string]any{"name": "PRIME", "price": 119, "currency": "USD"},
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "paid without plan rejected",
			admin:    false,
			body:     map[string]any{"from": "scheduled", "status": "paid"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid transition rejected",
			admin:    false,
			body:     map[string]any{"from": "completed", "status": "paid"},
			wantCode: http.StatusConflict,
		},
		{
			name:     "canceled requires admin",
			admin:    false,
			body:     map[string]any{"from": "scheduled", "status": "canceled"},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "admin can cancel",
			admin:    true,
			body:     map[string]any{"from": "scheduled", "status": "canceled"},
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown status rejected",
			admin:    false,
			body:     map[string]any{"status": "bogus"},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDashboard(&fakeAPI{}, tt.admin)

			payload, err := json.Marshal(tt.body)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/leads/bk-1/status", bytes.NewReader(payload))
			d.routes().ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
		})
	}
}

func TestApprovalsEndpoint_Refresh(t *testing.T) {
	d := newTestDashboard(&fakeAPI{
		pending: []crm.ApprovalRequest{{ApprovalID: "ap-1", BookingID: "bk-1"}},
	}, true)

	// Cache starts empty.
	rr := httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/approvals", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "ap-1")

	// refresh=true pulls from upstream and fills the cache.
	rr = httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/approvals?refresh=true", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ap-1")

	rr = httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/approvals", nil))
	assert.Contains(t, rr.Body.String(), "ap-1")
}

func TestDecisionEndpoint(t *testing.T) {
	d := newTestDashboard(&fakeAPI{}, true)

	payload := []byte(`{"action":"approved"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/approvals/ap-1/decision", bytes.NewReader(payload))
	d.routes().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ap-1")
}

func TestDecisionEndpoint_BadAction(t *testing.T) {
	d := newTestDashboard(&fakeAPI{}, true)

	payload := []byte(`{"action":"maybe"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/approvals/ap-1/decision", bytes.NewReader(payload))
	d.routes().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIncentivesEndpoint(t *testing.T) {
	d := newTestDashboard(&fakeAPI{
		configs: []crm.IncentiveConfigEntry{
			{PlanName: "PRIME", Currency: "USD", BasePrice: 119, PerLeadINR: 300},
		},
	}, false)

	rr := httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/incentives", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "PRIME")
}

func TestDashboardEndpoint(t *testing.T) {
	d := newTestDashboard(&fakeAPI{
		myLeads: []crm.Lead{
			{
				BookingID:     "bk-1",
				BookingStatus: crm.StatusPaid,
				PaymentPlan:   &crm.PaymentPlan{Name: "PRIME", Price: 119, Currency: "USD"},
			},
			{BookingID: "bk-2", BookingStatus: crm.StatusScheduled},
		},
		configs: []crm.IncentiveConfigEntry{
			{PlanName: "PRIME", Currency: "USD", BasePrice: 119, PerLeadINR: 300},
		},
	}, false)

	rr := httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		PaidLeads          int     `json:"paidLeads"`
		ProjectedIncentive float64 `json:"projectedIncentive"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.PaidLeads)
	assert.InDelta(t, 300.0, body.ProjectedIncentive, 0.01)
}

func TestSetPendingPublishesOnChange(t *testing.T) {
	d := newTestDashboard(&fakeAPI{}, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := d.bus.Subscribe(ctx)

	d.setPending([]crm.ApprovalRequest{{ApprovalID: "ap-1"}})

	ev := <-ch
	assert.Equal(t, "approvals_changed", string(ev.Kind))

	// Same set again does not publish.
	d.setPending([]crm.ApprovalRequest{{ApprovalID: "ap-1"}})
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}
