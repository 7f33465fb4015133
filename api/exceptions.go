package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/propertyfriends/pf-engine/cycle"
	"github.com/propertyfriends/pf-engine/exceptions"
	"github.com/propertyfriends/pf-engine/period"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// EXCEPTION WORKFLOW
// =============================================================================

// ListExceptions returns exceptions, newest first.
func (h *Handler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Store.ListExceptions(r.Context(), exceptions.Filter{
		Status:   exceptions.Status(q.Get("status")),
		Severity: exceptions.Severity(q.Get("severity")),
		Type:     exceptions.Type(q.Get("type")),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list exceptions", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ExceptionCounts returns open exception counts by severity.
func (h *Handler) ExceptionCounts(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.OpenExceptionCounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count exceptions", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetException returns one exception.
func (h *Handler) GetException(w http.ResponseWriter, r *http.Request) {
	e, err := h.Store.GetException(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Exception not found", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

var transitionTargets = map[string]exceptions.Status{
	"acknowledge": exceptions.StatusAcknowledged,
	"resolve":     exceptions.StatusResolved,
	"dismiss":     exceptions.StatusDismissed,
}

// TransitionException acknowledges, resolves or dismisses an exception.
func (h *Handler) TransitionException(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, ok := transitionTargets[chi.URLParam(r, "action")]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown action", nil)
		return
	}
	var req TransitionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	id := chi.URLParam(r, "id")
	e, err := h.Store.GetException(ctx, id)
	if err != nil {
		writeDomainError(w, "Exception not found", err)
		return
	}
	u, err := exceptions.Transition(e.Status, target, req.Actor, req.Notes, h.now())
	if err != nil {
		writeDomainError(w, "Invalid transition", err)
		return
	}
	if err := h.Store.UpdateException(ctx, id, u); err != nil {
		writeDomainError(w, "Failed to update exception", err)
		return
	}

	updated, err := h.Store.GetException(ctx, id)
	if err != nil {
		writeDomainError(w, "Exception not found", err)
		return
	}
	h.Logger.WithFields(logrus.Fields{
		"exception_id": id,
		"status":       updated.Status,
		"actor":        req.Actor,
	}).Info("exception status changed")
	writeJSON(w, http.StatusOK, updated)
}

// =============================================================================
// SCHEDULED JOBS
// =============================================================================

// RunExceptionCheck runs every detection rule. Rule failures are reported
// in the summary; the response is still 200 so the scheduler does not retry
// rules that succeeded.
func (h *Handler) RunExceptionCheck(w http.ResponseWriter, r *http.Request) {
	summary, err := h.CheckExceptions(r.Context())
	if err != nil {
		h.Logger.WithError(err).Warn("exception check finished with rule failures")
	}
	writeJSON(w, http.StatusOK, summary)
}

// RunPaymentFollowup runs the overdue invoice rule.
func (h *Handler) RunPaymentFollowup(w http.ResponseWriter, r *http.Request) {
	res, err := h.FollowUpPayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Payment follow-up failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RunMonthlyCycle creates pending reconciliations for ?period=YYYY-MM, or
// for last month when no period is given.
func (h *Handler) RunMonthlyCycle(w http.ResponseWriter, r *http.Request) {
	p := period.Of(h.now()).Previous()
	if raw := r.URL.Query().Get("period"); raw != "" {
		parsed, err := period.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period", err)
			return
		}
		p = parsed
	}

	summary, err := h.RunCycle(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Monthly cycle failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CheckExceptions runs every detection rule.
func (h *Handler) CheckExceptions(ctx context.Context) (exceptions.Summary, error) {
	h.jobs.Lock()
	defer h.jobs.Unlock()
	return h.Detector.RunAll(ctx)
}

// FollowUpPayments runs the overdue invoice rule.
func (h *Handler) FollowUpPayments(ctx context.Context) (exceptions.RuleResult, error) {
	h.jobs.Lock()
	defer h.jobs.Unlock()
	return h.Detector.DetectOverdueInvoices(ctx)
}

// RunCycle creates pending reconciliations for p.
func (h *Handler) RunCycle(ctx context.Context, p period.Period) (cycle.Summary, error) {
	h.jobs.Lock()
	defer h.jobs.Unlock()
	return h.Cycle.Run(ctx, p)
}
