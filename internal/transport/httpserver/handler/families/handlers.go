package families

import (
	"context"
	"errors"
	"net/http"

	familydomain "family-ledger/internal/domain/family"
	joinrequestdomain "family-ledger/internal/domain/joinrequest"
	"family-ledger/internal/domain/watcher"
	"family-ledger/internal/transport/httpserver/handler/common"
	"family-ledger/pkg/logger"
)

type Handlers struct {
	Families *familydomain.Service
	Requests *joinrequestdomain.Service
	Watcher  *watcher.Watcher
	log      logger.Logger
}

func New(families *familydomain.Service, requests *joinrequestdomain.Service, watch *watcher.Watcher, log logger.Logger) *Handlers {
	return &Handlers{
		Families: families,
		Requests: requests,
		Watcher:  watch,
		log:      log,
	}
}

// writeDomainError maps membership errors onto the error envelope. Anything
// unrecognised is logged as internal and hidden from the client.
func (h *Handlers) writeDomainError(w http.ResponseWriter, op string, err error, args ...any) {
	status, code := 0, ""
	switch {
	case errors.Is(err, familydomain.ErrFamilyNotFound):
		status, code = http.StatusNotFound, "family_not_found"
	case errors.Is(err, familydomain.ErrMemberNotFound):
		status, code = http.StatusNotFound, "member_not_found"
	case errors.Is(err, joinrequestdomain.ErrRequestNotFound):
		status, code = http.StatusNotFound, "request_not_found"
	case errors.Is(err, familydomain.ErrNotInFamily):
		status, code = http.StatusNotFound, "not_in_family"
	case errors.Is(err, familydomain.ErrUnauthorized):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, familydomain.ErrAlreadyInFamily):
		status, code = http.StatusConflict, "already_in_family"
	case errors.Is(err, familydomain.ErrOwnerCannotLeave):
		status, code = http.StatusConflict, "owner_cannot_leave"
	case errors.Is(err, familydomain.ErrCannotExpelOwner):
		status, code = http.StatusConflict, "cannot_expel_owner"
	case errors.Is(err, joinrequestdomain.ErrRequestMismatch):
		status, code = http.StatusConflict, "request_mismatch"
	case errors.Is(err, familydomain.ErrNameRequired), errors.Is(err, joinrequestdomain.ErrUserIDRequired):
		status, code = http.StatusBadRequest, "invalid_request"
	}

	if status == 0 {
		h.log.InternalError(op+": failed", err, args...)
		common.InternalError(w)
		return
	}
	h.log.BusinessError(op+": rejected", err, args...)
	common.WriteError(w, status, code, err.Error())
}

// requireAdmin is the call-site admin check. It always runs, whether or not
// the services re-check under the enforce policy.
func (h *Handlers) requireAdmin(ctx context.Context, familyID, userID string) error {
	ok, err := h.Families.IsAdmin(ctx, familyID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return familydomain.ErrUnauthorized
	}
	return nil
}

func (h *Handlers) requireMember(ctx context.Context, familyID, userID string) error {
	ok, err := h.Families.IsMember(ctx, familyID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return familydomain.ErrUnauthorized
	}
	return nil
}
