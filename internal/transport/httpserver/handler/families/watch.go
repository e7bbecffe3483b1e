package families

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"family-ledger/internal/domain/watcher"
	"family-ledger/internal/transport/httpserver/handler/common"
	"family-ledger/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

const watchHeartbeat = 15 * time.Second

type watchEvent struct {
	State      string    `json:"state"`
	FamilyID   string    `json:"family_id,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// Watch streams the caller's membership state for one family as server-sent
// events. The stream ends with an `evicted` event once the caller's
// current-family pointer no longer names the family.
func (h *Handlers) Watch(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}
	familyID := chi.URLParam(r, "family_id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		common.WriteError(w, http.StatusNotImplemented, "streaming_unsupported", "streaming unsupported")
		return
	}

	sub, err := h.Watcher.Attach(r.Context(), userID, familyID)
	if err != nil {
		h.writeDomainError(w, "families.watch", err, "user_id", userID, "family_id", familyID)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(watchHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-sub.Events():
			if !ok {
				select {
				case <-sub.Evicted():
					writeEvent(w, "evicted", watchEvent{State: watcher.StateEvicted.String(), ObservedAt: time.Now().UTC()})
					flusher.Flush()
				default:
				}
				return
			}
			name := "state"
			if event.State == watcher.StateEvicted {
				name = "evicted"
			}
			if err := writeEvent(w, name, watchEvent{
				State:      event.State.String(),
				FamilyID:   event.FamilyID,
				ObservedAt: event.ObservedAt,
			}); err != nil {
				return
			}
			flusher.Flush()
			if event.State == watcher.StateEvicted {
				h.log.Debug("families.watch: evicted", "user_id", userID, "family_id", familyID)
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, payload watchEvent) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
