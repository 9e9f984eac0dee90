package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// LedgerHandler serves accounts, money movements and the journal.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
	now     func() time.Time
}

// NewLedgerHandler creates a ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service, now: time.Now}
}

// --- Accounts ---

// CreateAccount handles POST /accounts
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	var account ledger.Account
	if !h.BindJSON(c, &account) {
		return
	}
	if err := h.service.CreateAccount(c.Request.Context(), &account); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, account)
}

// GetAccount handles GET /accounts/:id
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	accountID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	account, err := h.service.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, account)
}

// Total handles GET /accounts/:id/total
func (h *LedgerHandler) Total(c *gin.Context) {
	accountID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	total, err := h.service.RecomputeAccountTotal(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.AccountTotalResponse{AccountID: accountID, Total: total})
}

// Balance handles GET /accounts/:id/balances/:currencyId
func (h *LedgerHandler) Balance(c *gin.Context) {
	accountID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	currencyID, ok := h.PathID(c, "currencyId")
	if !ok {
		return
	}

	balance, err := h.service.BalanceInCurrency(c.Request.Context(), accountID, currencyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CurrencyBalanceResponse{AccountID: accountID, CurrencyID: currencyID, Balance: balance})
}

// Balances handles GET /accounts/:id/balances
func (h *LedgerHandler) Balances(c *gin.Context) {
	accountID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	balances, err := h.service.Balances(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(balances))
}

// Deposit handles POST /accounts/:id/deposit
func (h *LedgerHandler) Deposit(c *gin.Context) {
	h.move(c, h.service.Deposit)
}

// Withdraw handles POST /accounts/:id/withdraw
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	h.move(c, h.service.Withdraw)
}

func (h *LedgerHandler) move(c *gin.Context, op func(ctx context.Context, in ledger.MovementInput) (*ledger.Transaction, error)) {
	accountID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	txn, err := op(c.Request.Context(), req.ToInput(accountID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, txn)
}

// Transactions handles GET /accounts/:id/transactions
func (h *LedgerHandler) Transactions(c *gin.Context) {
	accountID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	txns, err := h.service.ListTransactions(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(txns))
}

// --- Journal ---

// PostEntry handles POST /journal/entries
func (h *LedgerHandler) PostEntry(c *gin.Context) {
	var req dto.CreateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.PostEntry(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.EntryResponse{JournalEntry: entry, IsBalanced: entry.IsBalanced()})
}

// ListEntries handles GET /journal/entries
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	var q dto.EntriesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	accountID, ok := h.QueryID(c, "accountId", q.AccountID)
	if !ok {
		return
	}
	from, ok := h.QueryDate(c, "from", q.From)
	if !ok {
		return
	}
	to, ok := h.QueryDate(c, "to", q.To)
	if !ok {
		return
	}

	entries, err := h.service.ListEntries(c.Request.Context(), ledger.EntryFilter{
		AccountID: accountID,
		From:      from,
		To:        to,
		Limit:     q.Limit,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(entries))
}

// GetEntry handles GET /journal/entries/:id
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	entryID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	entry, err := h.service.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.EntryResponse{JournalEntry: entry, IsBalanced: entry.IsBalanced()})
}

// ReverseEntry handles POST /journal/entries/:id/reverse
func (h *LedgerHandler) ReverseEntry(c *gin.Context) {
	entryID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReverseEntryRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	date := h.now().UTC().Truncate(24 * time.Hour)
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.Time
	}

	reversal, err := h.service.ReverseEntry(c.Request.Context(), entryID, date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.EntryResponse{JournalEntry: reversal, IsBalanced: reversal.IsBalanced()})
}
