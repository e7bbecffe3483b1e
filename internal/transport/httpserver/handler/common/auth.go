package common

import (
	"net/http"

	"family-ledger/internal/transport/httpserver/middleware"
)

type authMeResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar_url"`
	FamilyID  *string `json:"family_id"`
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		Unauthorized(w)
		return
	}

	familyID, err := h.Profiles.CurrentFamilyID(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("auth.me: read current family failed", err, "user_id", user.ID)
		InternalError(w)
		return
	}

	response := authMeResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}
	if familyID != "" {
		response.FamilyID = &familyID
	}
	writeJSON(w, http.StatusOK, response)
}
