package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/reconciliation"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// ReconciliationHandler compares stored balances against the journal.
type ReconciliationHandler struct {
	*BaseHandler
	checker *reconciliation.Checker
}

// NewReconciliationHandler creates a reconciliation handler.
func NewReconciliationHandler(base *BaseHandler, checker *reconciliation.Checker) *ReconciliationHandler {
	return &ReconciliationHandler{BaseHandler: base, checker: checker}
}

// One handles GET /reconciliation/:accountId/:currencyId
func (h *ReconciliationHandler) One(c *gin.Context) {
	accountID, ok := h.PathID(c, "accountId")
	if !ok {
		return
	}
	currencyID, ok := h.PathID(c, "currencyId")
	if !ok {
		return
	}

	result, err := h.checker.Reconcile(c.Request.Context(), accountID, currencyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// All handles GET /reconciliation
func (h *ReconciliationHandler) All(c *gin.Context) {
	results, err := h.checker.ReconcileAll(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	drifted := reconciliation.Drifted(results)
	if results == nil {
		results = []reconciliation.Result{}
	}
	if drifted == nil {
		drifted = []reconciliation.Result{}
	}
	h.OK(c, dto.ReconciliationResponse{Results: results, Drifted: drifted})
}
