package ledger

import (
	"context"
	"errors"
	"net/http"
	"time"

	ledgerdomain "family-ledger/internal/domain/ledger"
	"family-ledger/internal/transport/httpserver/handler/common"
	"family-ledger/internal/transport/httpserver/middleware"
	"family-ledger/pkg/logger"
)

// FamilyResolver reads the caller's current-family pointer.
type FamilyResolver interface {
	CurrentFamilyID(ctx context.Context, userID string) (string, error)
}

type Handlers struct {
	Ledger   *ledgerdomain.Service
	families FamilyResolver
	log      logger.Logger
}

func New(ledger *ledgerdomain.Service, families FamilyResolver, log logger.Logger) *Handlers {
	return &Handlers{Ledger: ledger, families: families, log: log}
}

type createEntryRequest struct {
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Currency string  `json:"currency" validate:"required,len=3"`
	Title    string  `json:"title" validate:"required,max=200"`
}

type entryResponse struct {
	ID        string    `json:"id"`
	FamilyID  string    `json:"family_id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type listEntriesResponse struct {
	Items []entryResponse `json:"items"`
	Total int64           `json:"total"`
}

func toEntryResponse(entry ledgerdomain.Entry) entryResponse {
	return entryResponse{
		ID:        entry.ID,
		FamilyID:  entry.FamilyID,
		UserID:    entry.UserID,
		Date:      entry.Date.Format("2006-01-02"),
		Amount:    entry.Amount,
		Currency:  entry.Currency,
		Title:     entry.Title,
		CreatedAt: entry.CreatedAt,
	}
}

// currentFamily resolves the scope of every ledger call. It writes the error
// response itself and returns "" when there is no scope.
func (h *Handlers) currentFamily(w http.ResponseWriter, r *http.Request, op string) (string, string) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return "", ""
	}
	familyID, err := h.families.CurrentFamilyID(r.Context(), userID)
	if err != nil {
		h.log.InternalError(op+": resolve family failed", err, "user_id", userID)
		common.InternalError(w)
		return "", ""
	}
	if familyID == "" {
		common.WriteError(w, http.StatusNotFound, "not_in_family", "not in a family")
		return "", ""
	}
	return userID, familyID
}

func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	limit, err := common.ParseIntParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}
	offset, err := common.ParseIntParam(r.URL.Query().Get("offset"), 0)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid offset")
		return
	}

	userID, familyID := h.currentFamily(w, r, "ledger.list")
	if familyID == "" {
		return
	}

	entries, total, err := h.Ledger.ListEntries(r.Context(), familyID, ledgerdomain.ListFilter{Limit: limit, Offset: offset})
	if err != nil {
		h.log.InternalError("ledger.list: list entries failed", err, "user_id", userID, "family_id", familyID)
		common.InternalError(w)
		return
	}

	items := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toEntryResponse(entry))
	}
	common.WriteJSON(w, http.StatusOK, listEntriesResponse{Items: items, Total: total})
}

func (h *Handlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid date")
		return
	}

	userID, familyID := h.currentFamily(w, r, "ledger.create")
	if familyID == "" {
		return
	}

	entry, err := h.Ledger.CreateEntry(r.Context(), ledgerdomain.CreateEntryInput{
		FamilyID: familyID,
		UserID:   userID,
		Date:     date,
		Amount:   req.Amount,
		Currency: req.Currency,
		Title:    req.Title,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledgerdomain.ErrInvalidCurrency),
			errors.Is(err, ledgerdomain.ErrTitleRequired),
			errors.Is(err, ledgerdomain.ErrInvalidAmount):
			h.log.BusinessError("ledger.create: invalid entry", err, "user_id", userID)
			common.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			h.log.InternalError("ledger.create: create entry failed", err, "user_id", userID, "family_id", familyID)
			common.InternalError(w)
		}
		return
	}

	common.WriteJSON(w, http.StatusCreated, toEntryResponse(*entry))
}
