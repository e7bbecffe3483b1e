package families

import (
	"net/http"
	"time"

	"family-ledger/internal/transport/httpserver/handler/common"
	"family-ledger/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type memberResponse struct {
	UserID   string    `json:"user_id"`
	Alias    string    `json:"alias"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}
	familyID := chi.URLParam(r, "family_id")

	if err := h.requireMember(r.Context(), familyID, userID); err != nil {
		h.writeDomainError(w, "families.list_members", err, "user_id", userID, "family_id", familyID)
		return
	}

	members, err := h.Families.ListMembers(r.Context(), familyID)
	if err != nil {
		h.writeDomainError(w, "families.list_members", err, "user_id", userID, "family_id", familyID)
		return
	}

	response := make([]memberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, memberResponse{
			UserID:   member.UserID,
			Alias:    member.Alias,
			Role:     member.Role,
			JoinedAt: member.JoinedAt,
		})
	}
	common.WriteJSON(w, http.StatusOK, response)
}

func (h *Handlers) ExpelMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}
	familyID := chi.URLParam(r, "family_id")
	memberID := chi.URLParam(r, "user_id")

	if err := h.requireAdmin(r.Context(), familyID, actorID); err != nil {
		h.writeDomainError(w, "families.expel", err, "user_id", actorID, "family_id", familyID)
		return
	}

	if err := h.Families.ExpelMember(r.Context(), actorID, familyID, memberID); err != nil {
		h.writeDomainError(w, "families.expel", err, "user_id", actorID, "family_id", familyID, "member_id", memberID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
