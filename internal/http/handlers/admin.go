package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrKriegler/go-claims/internal/core"
	"github.com/MrKriegler/go-claims/pkg/problem"
)

type AdminHandler struct {
	Svc core.ClaimService
	Log *slog.Logger
}

func NewAdminHandler(svc core.ClaimService, log *slog.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Log: log}
}

func (h *AdminHandler) Mount(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/claims/{claim_id}:approve", h.Approve)
		r.Post("/claims/{claim_id}:reject", h.Reject)
		r.Post("/claims/{claim_id}:request-info", h.RequestInfo)
		r.Get("/stats", h.Stats)
	})
}

// Approve approves a pending or under-review claim. The approved amount
// defaults to the declared amount when omitted.
// 200: JSON; 404: not found; 409: concurrent transition; 422: invalid transition.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.Approve)
}

// Reject rejects a pending or under-review claim. A non-empty reason is
// required.
// 200: JSON; 404: not found; 409: concurrent transition; 422: invalid transition/missing reason.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.Reject)
}

// RequestInfo moves a pending claim to under_review. Non-empty notes are
// required.
// 200: JSON; 404: not found; 409: concurrent transition; 422: invalid transition/missing notes.
func (h *AdminHandler) RequestInfo(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Svc.RequestInfo)
}

func (h *AdminHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id string, in core.TransitionInput) (core.Claim, error),
) {
	id := chi.URLParam(r, "claim_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Claim ID", "Path parameter claim_id is required.")
		return
	}

	var in core.TransitionInput
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			problem.Write(w, http.StatusBadRequest, "Invalid JSON", "Body could not be decoded.")
			return
		}
	}

	claim, err := apply(r.Context(), id, in)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(claim); err != nil {
		h.Log.Error("failed to encode claim", "claim_id", id, "err", err)
	}
}

// Stats returns the dashboard aggregation, optionally filtered by
// status and claim_type query parameters.
// 200: JSON; 400: unknown filter value; 500: internal error.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	filter := core.StatsFilter{
		Status:    core.ClaimStatus(r.URL.Query().Get("status")),
		ClaimType: core.ClaimType(r.URL.Query().Get("claim_type")),
	}

	stats, err := h.Svc.Stats(r.Context(), filter)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.Log.Error("failed to encode stats", "err", err)
	}
}
