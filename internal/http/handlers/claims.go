package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrKriegler/go-claims/internal/core"
	"github.com/MrKriegler/go-claims/pkg/problem"
)

type ClaimHandler struct {
	Svc core.ClaimService
	Log *slog.Logger
}

func NewClaimHandler(svc core.ClaimService, log *slog.Logger) *ClaimHandler {
	return &ClaimHandler{Svc: svc, Log: log}
}

func (h *ClaimHandler) Mount(r chi.Router) {
	r.Route("/claims", func(r chi.Router) {
		r.Post("/", h.Submit)
		r.Get("/{claim_id}", h.Get)
	})
	r.Get("/users/{user_id}/claims", h.ListForUser)
}

// Submit files a new claim. The claim is scored asynchronously unless
// ?wait=1 is passed, in which case the response carries the decided status.
// 201: JSON; 400: bad JSON/validation; 500: internal error.
func (h *ClaimHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in core.ClaimInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		problem.Write(w, http.StatusBadRequest, "Invalid JSON", "Body could not be decoded.")
		return
	}

	opts := core.SubmitOptions{Wait: r.URL.Query().Get("wait") == "1"}

	claim, err := h.Svc.Submit(r.Context(), in, opts)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(claim); err != nil {
		h.Log.Error("failed to encode claim", "err", err)
	}
}

// Get retrieves a claim by ID.
// 200: JSON; 400: missing ID; 404: not found; 500: internal error.
func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "claim_id")
	if id == "" {
		problem.Write(w, http.StatusBadRequest, "Missing Claim ID", "Path parameter claim_id is required.")
		return
	}

	claim, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to get claim")
		return
	}

	if err := json.NewEncoder(w).Encode(claim); err != nil {
		h.Log.Error("failed to encode claim", "claim_id", id, "err", err)
	}
}

// ListForUser returns a user's claims, newest first.
// 200: JSON; 400: missing ID; 500: internal error.
func (h *ClaimHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		problem.Write(w, http.StatusBadRequest, "Missing User ID", "Path parameter user_id is required.")
		return
	}

	claims, err := h.Svc.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), h.Log, w, err, "Failed to list claims")
		return
	}
	if claims == nil {
		claims = []core.Claim{}
	}

	if err := json.NewEncoder(w).Encode(claims); err != nil {
		h.Log.Error("failed to encode claims", "user_id", userID, "err", err)
	}
}
