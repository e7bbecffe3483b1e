package common

import (
	"net/http"

	profiledomain "family-ledger/internal/domain/profile"
	"family-ledger/pkg/logger"
)

type Handlers struct {
	Profiles *profiledomain.Service
	log      logger.Logger
}

func New(profiles *profiledomain.Service, log logger.Logger) *Handlers {
	return &Handlers{Profiles: profiles, log: log}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
