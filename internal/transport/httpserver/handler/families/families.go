package families

import (
	"net/http"
	"strings"
	"time"

	familydomain "family-ledger/internal/domain/family"
	"family-ledger/internal/transport/httpserver/handler/common"
	"family-ledger/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createFamilyRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Alias string `json:"alias" validate:"max=80"`
}

type familyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toFamilyResponse(family *familydomain.Family) familyResponse {
	return familyResponse{
		ID:        family.ID,
		Name:      family.Name,
		OwnerID:   family.OwnerID,
		CreatedAt: family.CreatedAt,
	}
}

func (h *Handlers) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var req createFamilyRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	alias := strings.TrimSpace(req.Alias)
	if alias == "" {
		alias = user.Name
	}

	result, err := h.Families.CreateFamily(r.Context(), user.ID, req.Name, alias)
	if err != nil {
		h.writeDomainError(w, "families.create", err, "user_id", user.ID)
		return
	}

	common.WriteJSON(w, http.StatusCreated, toFamilyResponse(result))
}

func (h *Handlers) GetFamilyMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	result, err := h.Families.CurrentFamily(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, "families.get_me", err, "user_id", userID)
		return
	}

	common.WriteJSON(w, http.StatusOK, toFamilyResponse(result))
}

func (h *Handlers) LookupFamily(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	result, err := h.Families.FindFamilyByName(r.Context(), name)
	if err != nil {
		h.writeDomainError(w, "families.lookup", err, "name", name)
		return
	}

	common.WriteJSON(w, http.StatusOK, toFamilyResponse(result))
}

func (h *Handlers) LeaveFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	if err := h.Families.LeaveFamily(r.Context(), userID); err != nil {
		h.writeDomainError(w, "families.leave", err, "user_id", userID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}
	familyID := chi.URLParam(r, "family_id")

	family, err := h.Families.GetFamily(r.Context(), familyID)
	if err != nil {
		h.writeDomainError(w, "families.delete", err, "user_id", userID, "family_id", familyID)
		return
	}
	if family.OwnerID != userID {
		if err := h.requireAdmin(r.Context(), familyID, userID); err != nil {
			h.writeDomainError(w, "families.delete", err, "user_id", userID, "family_id", familyID)
			return
		}
	}

	if err := h.Families.DeleteFamily(r.Context(), userID, familyID); err != nil {
		h.writeDomainError(w, "families.delete", err, "user_id", userID, "family_id", familyID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
