package families

import (
	"net/http"
	"time"

	joinrequestdomain "family-ledger/internal/domain/joinrequest"
	"family-ledger/internal/transport/httpserver/handler/common"
	"family-ledger/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type submitRequest struct {
	Alias string `json:"alias" validate:"max=80"`
}

type submitByNameRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Alias string `json:"alias" validate:"max=80"`
}

type approveRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Alias  string `json:"alias" validate:"max=80"`
}

type joinRequestResponse struct {
	ID        string    `json:"id"`
	FamilyID  string    `json:"family_id"`
	UserID    string    `json:"user_id"`
	Alias     string    `json:"alias"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toJoinRequestResponse(request *joinrequestdomain.JoinRequest) joinRequestResponse {
	return joinRequestResponse{
		ID:        request.ID,
		FamilyID:  request.FamilyID,
		UserID:    request.UserID,
		Alias:     request.Alias,
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
	}
}

func (h *Handlers) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}
	familyID := chi.URLParam(r, "family_id")

	result, err := h.Requests.Submit(r.Context(), familyID, userID, req.Alias)
	if err != nil {
		h.writeDomainError(w, "requests.submit", err, "user_id", userID, "family_id", familyID)
		return
	}

	common.WriteJSON(w, http.StatusCreated, toJoinRequestResponse(result))
}

func (h *Handlers) SubmitRequestByName(w http.ResponseWriter, r *http.Request) {
	var req submitByNameRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	result, err := h.Requests.SubmitByName(r.Context(), req.Name, userID, req.Alias)
	if err != nil {
		h.writeDomainError(w, "requests.submit_by_name", err, "user_id", userID, "name", req.Name)
		return
	}

	common.WriteJSON(w, http.StatusCreated, toJoinRequestResponse(result))
}

func (h *Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}
	familyID := chi.URLParam(r, "family_id")

	if err := h.requireAdmin(r.Context(), familyID, userID); err != nil {
		h.writeDomainError(w, "requests.list", err, "user_id", userID, "family_id", familyID)
		return
	}

	requests, err := h.Requests.ListPending(r.Context(), familyID)
	if err != nil {
		h.writeDomainError(w, "requests.list", err, "user_id", userID, "family_id", familyID)
		return
	}

	response := make([]joinRequestResponse, 0, len(requests))
	for i := range requests {
		response = append(response, toJoinRequestResponse(&requests[i]))
	}
	common.WriteJSON(w, http.StatusOK, response)
}

func (h *Handlers) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}
	familyID := chi.URLParam(r, "family_id")
	requestID := chi.URLParam(r, "request_id")

	if err := h.requireAdmin(r.Context(), familyID, actorID); err != nil {
		h.writeDomainError(w, "requests.approve", err, "user_id", actorID, "family_id", familyID)
		return
	}

	if err := h.Requests.Approve(r.Context(), actorID, familyID, req.UserID, req.Alias, requestID); err != nil {
		h.writeDomainError(w, "requests.approve", err, "user_id", actorID, "family_id", familyID, "request_id", requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RejectRequest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}
	familyID := chi.URLParam(r, "family_id")
	requestID := chi.URLParam(r, "request_id")

	if err := h.requireAdmin(r.Context(), familyID, actorID); err != nil {
		h.writeDomainError(w, "requests.reject", err, "user_id", actorID, "family_id", familyID)
		return
	}

	if err := h.Requests.Reject(r.Context(), actorID, familyID, requestID); err != nil {
		h.writeDomainError(w, "requests.reject", err, "user_id", actorID, "family_id", familyID, "request_id", requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
