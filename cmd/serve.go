package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sohith73/flashfire-CRM/internal/approval"
	"github.com/sohith73/flashfire-CRM/internal/claim"
	"github.com/sohith73/flashfire-CRM/internal/events"
	"github.com/sohith73/flashfire-CRM/internal/incentive"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

var servePort int

// dashboard serves the local BDA dashboard API. It fronts the upstream
// CRM with a polled approvals cache and an event stream.
type dashboard struct {
	client     crm.Client
	incentives *incentive.Store
	approvals  *approval.Service
	bus        *events.Bus
	actor      claim.Actor

	mu      sync.RWMutex
	pending []crm.ApprovalRequest
}

func newDashboard(client crm.Client, actor claim.Actor) *dashboard {
	return &dashboard{
		client:     client,
		incentives: incentive.NewStore(client),
		approvals:  approval.NewService(client),
		bus:        events.NewBus(),
		actor:      actor,
	}
}

// setPending replaces the approvals cache and broadcasts a change event
// when the set actually changed.
func (d *dashboard) setPending(batch []crm.ApprovalRequest) {
	d.mu.Lock()
	changed := len(batch) != len(d.pending)
	if !changed {
		for i := range batch {
			if batch[i].ApprovalID != d.pending[i].ApprovalID {
				changed = true
				break
			}
		}
	}
	d.pending = batch
	d.mu.Unlock()

	if changed {
		d.bus.Publish(events.Event{Kind: events.ApprovalsChanged})
	}
}

func (d *dashboard) cachedPending() []crm.ApprovalRequest {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]crm.ApprovalRequest, len(d.pending))
	copy(out, d.pending)
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// httpStatusFor maps client errors onto response codes.
func httpStatusFor(err error) int {
	var apiErr *crm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var reqErr *crm.RequestError
	if errors.As(err, &reqErr) {
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

func (d *dashboard) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", d.handleDashboard)
		r.Get("/leads", d.handleLeadSearch)
		r.Get("/leads/mine", d.handleMyLeads)
		r.Post("/leads/{bookingID}/claim", d.handleClaim)
		r.Put("/leads/{bookingID}/status", d.handleStatus)
		r.Get("/approvals", d.handleApprovals)
		r.Post("/approvals/{approvalID}/decision", d.handleDecision)
		r.Get("/incentives", d.handleIncentives)
		r.Get("/events", d.handleEvents)
	})

	return r
}

// handleDashboard aggregates the lead list, incentive projection, and
// approvals cache into one snapshot.
func (d *dashboard) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var leads []crm.Lead
	var pagination *crm.Pagination

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, pagination, err = d.client.MyLeads(gctx, 1, 100)
		return err
	})
	g.Go(func() error {
		d.incentives.Refresh(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		writeError(w, httpStatusFor(err), err.Error())
		return
	}

	calc := d.incentives.Calculator()
	paid := 0
	for i := range leads {
		if leads[i].BookingStatus == crm.StatusPaid {
			paid++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"actor":              d.actor.Email,
		"leads":              leads,
		"pagination":         pagination,
		"paidLeads":          paid,
		"projectedIncentive": calc.Total(leads),
		"pendingApprovals":   len(d.cachedPending()),
	})
}

func (d *dashboard) handleLeadSearch(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	lead, err := d.client.LeadByEmail(r.Context(), email)
	if err != nil {
		writeError(w, httpStatusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (d *dashboard) handleMyLeads(w http.ResponseWriter, r *http.Request) {
	leads, pagination, err := d.client.MyLeads(r.Context(), 1, 100)
	if err != nil {
		writeError(w, httpStatusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "pagination": pagination})
}

func (d *dashboard) handleClaim(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	lead, err := d.client.ClaimLead(r.Context(), bookingID)
	if err != nil {
		writeError(w, httpStatusFor(err), err.Error())
		return
	}

	d.bus.Publish(events.Event{Kind: events.BookingUpdated, BookingID: bookingID})
	writeJSON(w, http.StatusOK, lead)
}

func (d *dashboard) handleStatus(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	var req struct {
		From   crm.BookingStatus `json:"from"`
		Status crm.BookingStatus `json:"status"`
		Plan   *crm.PaymentPlan  `json:"plan,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !claim.ValidStatus(string(req.Status)) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}
	if req.From != "" && !claim.CanTransition(req.From, req.Status) {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("cannot move a %s booking to %s", req.From, req.Status))
		return
	}
	if claim.AdminOnly(req.Status) && !d.actor.Admin {
		writeError(w, http.StatusForbidden, fmt.Sprintf("%s requires an admin", req.Status))
		return
	}
	if req.Status == crm.StatusPaid && (req.Plan == nil || req.Plan.Name == "" || req.Plan.Price <= 0) {
		writeError(w, http.StatusBadRequest, "a plan with a positive price is required to mark paid")
		return
	}

	lead, err := d.client.UpdateBookingStatus(r.Context(), bookingID, req.Status, req.Plan)
	if err != nil {
		writeError(w, httpStatusFor(err), err.Error())
		return
	}

	d.bus.Publish(events.Event{Kind: events.BookingUpdated, BookingID: bookingID})
	writeJSON(w, http.StatusOK, lead)
}

func (d *dashboard) handleApprovals(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		pending, err := d.approvals.Pending(r.Context())
		if err != nil {
			writeError(w, httpStatusFor(err), err.Error())
			return
		}
		d.setPending(pending)
	}
	writeJSON(w, http.StatusOK, map[string]any{"approvals": d.cachedPending()})
}

func (d *dashboard) handleDecision(w http.ResponseWriter, r *http.Request) {
	approvalID := chi.URLParam(r, "approvalID")

	var req struct {
		Action crm.ApprovalStatus `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Action != crm.ApprovalApproved && req.Action != crm.ApprovalDenied {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("action must be approved or denied, got %q", req.Action))
		return
	}

	if err := d.approvals.Decide(r.Context(), approvalID, req.Action); err != nil {
		if errors.Is(err, approval.ErrDecisionInFlight) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, httpStatusFor(err), err.Error())
		return
	}

	d.bus.Publish(events.Event{Kind: events.ApprovalsChanged})
	writeJSON(w, http.StatusOK, map[string]string{"approvalId": approvalID, "action": string(req.Action)})
}

func (d *dashboard) handleIncentives(w http.ResponseWriter, r *http.Request) {
	d.incentives.Refresh(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"incentives": d.incentives.Table().Entries()})
}

// handleEvents streams bus events as server-sent events until the client
// disconnects.
func (d *dashboard) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := d.bus.Subscribe(r.Context())
	for ev := range ch {
		payload, _ := json.Marshal(ev)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload)
		flusher.Flush()
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		actor := claim.Actor{
			Email: cfg.Actor.Email,
			Name:  cfg.Actor.Name,
			Admin: cfg.Actor.Admin,
		}
		d := newDashboard(newClient(), actor)

		// Warm the incentive table before serving.
		d.incentives.Refresh(ctx)

		// Approvals poller feeds the cache and the event stream.
		interval := approval.DefaultPollInterval
		if secs := cfg.Approvals.PollIntervalSecs; secs > 0 {
			interval = time.Duration(secs) * time.Second
		}
		poller := approval.NewPoller(d.approvals, interval, d.setPending)
		go func() {
			if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
				zap.L().Error("approvals poller stopped", zap.Error(err))
			}
		}()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: d.routes(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting dashboard server",
			zap.Int("port", port),
			zap.String("actor", actor.Email),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
