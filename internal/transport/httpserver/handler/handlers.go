package handler

import (
	"family-ledger/internal/transport/httpserver/handler/auth"
	"family-ledger/internal/transport/httpserver/handler/common"
	"family-ledger/internal/transport/httpserver/handler/families"
	"family-ledger/internal/transport/httpserver/handler/ledger"
)

type Handlers struct {
	Common   *common.Handlers
	Auth     *auth.Handlers
	Families *families.Handlers
	Ledger   *ledger.Handlers
}

func New(commonHandlers *common.Handlers, authHandlers *auth.Handlers, familyHandlers *families.Handlers, ledgerHandlers *ledger.Handlers) *Handlers {
	return &Handlers{
		Common:   commonHandlers,
		Auth:     authHandlers,
		Families: familyHandlers,
		Ledger:   ledgerHandlers,
	}
}
