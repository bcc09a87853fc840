// Package crm wraps the FlashFire REST API for the lead claim, incentive,
// approval, and meeting endpoints.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Default base URL for the FlashFire API.
const defaultBaseURL = "https://api.flashfirejobs.com"

// Client defines the FlashFire API operations used by this application.
type Client interface {
	IncentiveConfig(ctx context.Context) ([]IncentiveConfigEntry, error)
	AdminIncentiveConfig(ctx context.Context) ([]IncentiveConfigEntry, error)
	SaveIncentiveConfig(ctx context.Context, entries []IncentiveConfigEntry) error

	LeadByEmail(ctx context.Context, email string) (*Lead, error)
	ClaimLead(ctx context.Context, bookingID string) (*Lead, error)
	UpdateLead(ctx context.Context, bookingID string, update LeadUpdate) (*Lead, error)
	MyLeads(ctx context.Context, page, limit int) ([]Lead, *Pagination, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status BookingStatus, plan *PaymentPlan) (*Lead, error)

	Analysis(ctx context.Context, filter AnalysisFilter) (*AnalysisReport, error)
	LeadsByBDA(ctx context.Context, email string) ([]Lead, error)
	UnclaimBooking(ctx context.Context, bookingID string) error

	PendingApprovals(ctx context.Context) ([]ApprovalRequest, error)
	DecideApproval(ctx context.Context, approvalID string, action ApprovalStatus) error

	MeetingLinks(ctx context.Context, page, limit int, from, to string) ([]MeetingLink, *Pagination, error)

	ContactPaid(ctx context.Context, contactID string) (bool, error)
	ContactsPaid(ctx context.Context, contactIDs []string) (map[string]bool, error)
}

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flashfire: HTTP %d: %s", e.StatusCode, e.Body)
}

// RequestError is returned when the API responds 2xx but reports
// success=false, carrying the server message.
type RequestError struct {
	Op      string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("flashfire: %s: %s", e.Op, e.Message)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAdminToken sets a separate token for the /api/crm/admin endpoints.
// Without it, admin calls fall back to the regular token.
func WithAdminToken(token string) Option {
	return func(c *httpClient) {
		c.adminToken = token
	}
}

// WithRateLimit overrides the default request throttle (5 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	token      string
	adminToken string
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new FlashFire API client.
// By default, calls are throttled to 5 req/s.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common response wrapper. Data stays raw so each
// operation can decode its own payload shape.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Configs    json.RawMessage `json:"configs,omitempty"`
	Message    string          `json:"message,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

func (c *httpClient) IncentiveConfig(ctx context.Context) ([]IncentiveConfigEntry, error) {
	env, err := c.get(ctx, "/api/bda/incentives/config", false)
	if err != nil {
		return nil, eris.Wrap(err, "flashfire: get incentive config")
	}
	entries, err := decodeConfigs(env)
	if err != nil {
		return nil, eris.Wrap(err, "flashfire: get incentive config")
	}
	return entries, nil
}

func (c *httpClient) AdminIncentiveConfig(ctx context.Context) ([]IncentiveConfigEntry, error) {
	env, err := c.get(ctx, "/api/crm/admin/bda-incentives/config", true)
	if err != nil {
		return nil, eris.Wrap(err, "flashfire: get admin incentive config")
	}
	entries, err := decodeConfigs(env)
	if err != nil {
		return nil, eris.Wrap(err, "flashfire: get admin incentive config")
	}
	return entries, nil
}

func (c *httpClient) SaveIncentiveConfig(ctx context.Context, entries []IncentiveConfigEntry) error {
	body := struct {
		Configs []IncentiveConfigEntry `json:"configs"`
	}{Configs: entries}
	if _, err := c.send(ctx, http.MethodPut, "/api/crm/admin/bda-incentives/config", body, true); err != nil {
		return eris.Wrap(err, "flashfire: save incentive config")
	}
	return nil
}

func (c *httpClient) LeadByEmail(ctx context.Context, email string) (*Lead, error) {
	env, err := c.get(ctx, "/api/bda/lead-by-email/"+url.PathEscape(email), false)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("flashfire: lead by email %s", email))
	}
	var lead Lead
	if err := json.Unmarshal(env.Data, &lead); err != nil {
		return nil, eris.Wrap(err, "decode lead")
	}
	return &lead, nil
}

func (c *httpClient) ClaimLead(ctx context.Context, bookingID string) (*Lead, error) {
	env, err := c.send(ctx, http.MethodPost, "/api/bda/claim-lead/"+url.PathEscape(bookingID), nil, false)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("flashfire: claim lead %s", bookingID))
	}
	var lead Lead
	if err := json.Unmarshal(env.Data, &lead); err != nil {
		return nil, eris.Wrap(err, "decode lead")
	}
	return &lead, nil
}

func (c *httpClient) UpdateLead(ctx context.Context, bookingID string, update LeadUpdate) (*Lead, error) {
	env, err := c.send(ctx, http.MethodPut, "/api/bda/update-lead/"+url.PathEscape(bookingID), update, false)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("flashfire: update lead %s", bookingID))
	}
	var lead Lead
	if err := json.Unmarshal(env.Data, &lead); err != nil {
		return nil, eris.Wrap(err, "decode lead")
	}
	return &lead, nil
}

func (c *httpClient) MyLeads(ctx context.Context, page, limit int) ([]Lead, *Pagination, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	env, err := c.get(ctx, withQuery("/api/bda/my-leads", q), false)
	if err != nil {
		return nil, nil, eris.Wrap(err, "flashfire: my leads")
	}
	var leads []Lead
	if err := json.Unmarshal(env.Data, &leads); err != nil {
		return nil, nil, eris.Wrap(err, "decode leads")
	}
	return leads, env.Pagination, nil
}

func (c *httpClient) UpdateBookingStatus(ctx context.Context, bookingID string, status BookingStatus, plan *PaymentPlan) (*Lead, error) {
	body := struct {
		Status      BookingStatus `json:"status"`
		PaymentPlan *PaymentPlan  `json:"paymentPlan,omitempty"`
	}{Status: status, PaymentPlan: plan}
	env, err := c.send(ctx, http.MethodPut, "/api/campaign-bookings/"+url.PathEscape(bookingID)+"/status", body, false)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("flashfire: update status %s", bookingID))
	}
	var lead Lead
	if err := json.Unmarshal(env.Data, &lead); err != nil {
		return nil, eris.Wrap(err, "decode lead")
	}
	return &lead, nil
}

func (c *httpClient) Analysis(ctx context.Context, filter AnalysisFilter) (*AnalysisReport, error) {
	q := url.Values{}
	if filter.From != "" {
		q.Set("fromDate", filter.From)
	}
	if filter.To != "" {
		q.Set("toDate", filter.To)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.PlanName != "" {
		q.Set("planName", filter.PlanName)
	}
	if filter.BdaEmail != "" {
		q.Set("bdaEmail", filter.BdaEmail)
	}
	env, err := c.get(ctx, withQuery("/api/bda/analysis", q), true)
	if err != nil {
		return nil, eris.Wrap(err, "flashfire: analysis")
	}
	var report AnalysisReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		return nil, eris.Wrap(err, "decode analysis")
	}
	return &report, nil
}

func (c *httpClient) LeadsByBDA(ctx context.Context, email string) ([]Lead, error) {
	env, err := c.get(ctx, "/api/bda/leads/"+url.PathEscape(email), true)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("flashfire: leads by bda %s", email))
	}
	var leads []Lead
	if err := json.Unmarshal(env.Data, &leads); err != nil {
		return nil, eris.Wrap(err, "decode leads")
	}
	return leads, nil
}

func (c *httpClient) UnclaimBooking(ctx context.Context, bookingID string) error {
	if _, err := c.send(ctx, http.MethodPost, "/api/crm/admin/booking/"+url.PathEscape(bookingID)+"/unclaim", nil, true); err != nil {
		return eris.Wrap(err, fmt.Sprintf("flashfire: unclaim booking %s", bookingID))
	}
	return nil
}

func (c *httpClient) PendingApprovals(ctx context.Context) ([]ApprovalRequest, error) {
	env, err := c.get(ctx, "/api/crm/admin/bda-approvals/pending", true)
	if err != nil {
		return nil, eris.Wrap(err, "flashfire: pending approvals")
	}
	var approvals []ApprovalRequest
	if err := json.Unmarshal(env.Data, &approvals); err != nil {
		return nil, eris.Wrap(err, "decode approvals")
	}
	return approvals, nil
}

func (c *httpClient) DecideApproval(ctx context.Context, approvalID string, action ApprovalStatus) error {
	body := struct {
		Action ApprovalStatus `json:"action"`
	}{Action: action}
	if _, err := c.send(ctx, http.MethodPost, "/api/crm/admin/bda-approvals/"+url.PathEscape(approvalID)+"/decision", body, true); err != nil {
		return eris.Wrap(err, fmt.Sprintf("flashfire: decide approval %s", approvalID))
	}
	return nil
}

func (c *httpClient) MeetingLinks(ctx context.Context, page, limit int, from, to string) ([]MeetingLink, *Pagination, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if from != "" {
		q.Set("fromDate", from)
	}
	if to != "" {
		q.Set("toDate", to)
	}
	env, err := c.get(ctx, withQuery("/api/meeting-links", q), false)
	if err != nil {
		return nil, nil, eris.Wrap(err, "flashfire: meeting links")
	}
	var links []MeetingLink
	if err := json.Unmarshal(env.Data, &links); err != nil {
		return nil, nil, eris.Wrap(err, "decode meeting links")
	}
	return links, env.Pagination, nil
}

// The contact status endpoints return bare JSON, not the success
// envelope: {"isPaid": bool} for one contact and [{"id", "isPaid"}] for
// the bulk check.
func (c *httpClient) ContactPaid(ctx context.Context, contactID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/contacts/"+url.PathEscape(contactID)+"/status", nil)
	if err != nil {
		return false, eris.Wrap(err, "create request")
	}
	data, err := c.roundTrip(ctx, req, false)
	if err != nil {
		return false, eris.Wrap(err, fmt.Sprintf("flashfire: contact status %s", contactID))
	}
	var status ContactStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return false, eris.Wrap(err, "decode contact status")
	}
	return status.Paid, nil
}

func (c *httpClient) ContactsPaid(ctx context.Context, contactIDs []string) (map[string]bool, error) {
	body := struct {
		ContactIDs []string `json:"contactIds"`
	}{ContactIDs: contactIDs}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, eris.Wrap(err, "marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/contacts/status/bulk", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.roundTrip(ctx, req, false)
	if err != nil {
		return nil, eris.Wrap(err, "flashfire: bulk contact status")
	}
	var statuses []ContactStatus
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, eris.Wrap(err, "decode contact statuses")
	}
	paid := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		paid[s.ContactID] = s.Paid
	}
	return paid, nil
}

// decodeConfigs handles both envelope keys the API uses for the incentive
// table: "configs" on the config endpoints and "data" elsewhere.
func decodeConfigs(env *envelope) ([]IncentiveConfigEntry, error) {
	raw := env.Configs
	if len(raw) == 0 {
		raw = env.Data
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []IncentiveConfigEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, eris.Wrap(err, "decode configs")
	}
	return entries, nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func (c *httpClient) get(ctx context.Context, path string, admin bool) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	return c.do(ctx, req, admin)
}

func (c *httpClient) send(ctx context.Context, method, path string, body any, admin bool) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, eris.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(ctx, req, admin)
}

// roundTrip authenticates and executes a request, returning the response
// body. Non-2xx responses become an APIError.
func (c *httpClient) roundTrip(ctx context.Context, req *http.Request, admin bool) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit")
		}
	}

	token := c.token
	if admin && c.adminToken != "" {
		token = c.adminToken
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}
	return data, nil
}

func (c *httpClient) do(ctx context.Context, req *http.Request, admin bool) (*envelope, error) {
	data, err := c.roundTrip(ctx, req, admin)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(err, "decode response")
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return nil, &RequestError{Op: req.Method + " " + req.URL.Path, Message: msg}
	}
	return &env, nil
}
