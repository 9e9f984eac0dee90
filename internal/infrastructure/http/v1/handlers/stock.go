package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/valuation"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// StockHandler handles purchases, batches, consumptions and stock views.
type StockHandler struct {
	*BaseHandler
	ledger    *batches.Ledger
	valuation *valuation.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, ledger *batches.Ledger, valuation *valuation.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, ledger: ledger, valuation: valuation}
}

// CreatePurchase handles POST /purchases
func (h *StockHandler) CreatePurchase(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	purchase, created, err := h.ledger.RecordPurchase(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.PurchaseResponse{Purchase: *purchase, Batches: created})
}

// UpdateBatch handles PATCH /batches/:id
func (h *StockHandler) UpdateBatch(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.ledger.UpdateBatch(c.Request.Context(), batchID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// DeleteBatch handles DELETE /batches/:id
func (h *StockHandler) DeleteBatch(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteBatch(c.Request.Context(), batchID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListOpen handles GET /batches/open
func (h *StockHandler) ListOpen(c *gin.Context) {
	var q dto.OpenBatchesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	productID, ok := h.QueryID(c, "productId", q.ProductID)
	if !ok {
		return
	}

	open, err := h.ledger.ListOpenBatches(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(open))
}

// Remaining handles GET /batches/:id/remaining
func (h *StockHandler) Remaining(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	base, err := h.ledger.RemainingBase(ctx, batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	inUnit, err := h.ledger.Remaining(ctx, batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.RemainingResponse{BatchID: batchID, Remaining: inUnit, RemainingBase: base})
}

// ValidateConsumption handles POST /batches/:id/validate
func (h *StockHandler) ValidateConsumption(c *gin.Context) {
	batchID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ValidateConsumptionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	err := h.ledger.ValidateConsumption(c.Request.Context(), batchID, req.Amount, req.UnitID, req.ExcludeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ValidationResponse{Valid: true})
}

// UpdateConsumption handles PUT /consumptions/:id
func (h *StockHandler) UpdateConsumption(c *gin.Context) {
	consumptionID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateConsumptionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.ledger.UpdateConsumption(c.Request.Context(), consumptionID, req.Amount, req.UnitID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// DeleteConsumption handles DELETE /consumptions/:id
func (h *StockHandler) DeleteConsumption(c *gin.Context) {
	consumptionID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteConsumption(c.Request.Context(), consumptionID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ProductStock handles GET /stock/products/:id
func (h *StockHandler) ProductStock(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q dto.ProductStockQuery
	if !h.BindQuery(c, &q) {
		return
	}
	unitID, ok := h.QueryID(c, "unitId", q.UnitID)
	if !ok {
		return
	}

	stock, err := h.valuation.ProductStock(c.Request.Context(), productID, unitID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stock)
}

// Report handles GET /stock/report
func (h *StockHandler) Report(c *gin.Context) {
	var q dto.StockReportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	productID, ok := h.QueryID(c, "productId", q.ProductID)
	if !ok {
		return
	}
	before, ok := h.QueryDate(c, "expiringBefore", q.ExpiringBefore)
	if !ok {
		return
	}

	rows, err := h.valuation.StockReport(c.Request.Context(), valuation.ReportFilter{
		ProductID:      productID,
		ExpiringBefore: before,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	if rows == nil {
		rows = []valuation.ReportRow{}
	}
	h.OK(c, dto.StockReportResponse{Rows: rows, Totals: valuation.Summary(rows)})
}
