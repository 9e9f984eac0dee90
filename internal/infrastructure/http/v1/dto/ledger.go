package dto

import (
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reconciliation"
)

// MovementRequest is a deposit or withdrawal; the account comes from the path.
type MovementRequest struct {
	Amount           types.Money `json:"amount"`
	IsFull           bool        `json:"isFull"`
	CurrencyID       *id.ID      `json:"currencyId"`
	Rate             types.Ratio `json:"rate"`
	Date             Date        `json:"date" binding:"required"`
	Notes            string      `json:"notes"`
	CounterAccountID *id.ID      `json:"counterAccountId"`
}

// ToInput converts the request to the ledger command.
func (r *MovementRequest) ToInput(accountID id.ID) ledger.MovementInput {
	return ledger.MovementInput{
		AccountID:        accountID,
		Amount:           r.Amount,
		IsFull:           r.IsFull,
		CurrencyID:       r.CurrencyID,
		Rate:             r.Rate,
		Date:             r.Date.Time,
		Notes:            r.Notes,
		CounterAccountID: r.CounterAccountID,
	}
}

// AccountTotalResponse is the recomputed legacy total of an account.
type AccountTotalResponse struct {
	AccountID id.ID       `json:"accountId"`
	Total     types.Money `json:"total"`
}

// CurrencyBalanceResponse is one per-currency balance.
type CurrencyBalanceResponse struct {
	AccountID  id.ID       `json:"accountId"`
	CurrencyID id.ID       `json:"currencyId"`
	Balance    types.Money `json:"balance"`
}

// JournalLineRequest is one line of a new entry.
type JournalLineRequest struct {
	AccountID    id.ID       `json:"accountId" binding:"required"`
	CurrencyID   *id.ID      `json:"currencyId"`
	Debit        types.Money `json:"debit"`
	Credit       types.Money `json:"credit"`
	ExchangeRate types.Ratio `json:"exchangeRate"`
	Memo         string      `json:"memo"`
}

// CreateEntryRequest posts a journal entry.
type CreateEntryRequest struct {
	Date        Date                 `json:"date" binding:"required"`
	Description string               `json:"description"`
	Reference   string               `json:"reference"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request to the journal command.
func (r *CreateEntryRequest) ToInput() ledger.EntryInput {
	in := ledger.EntryInput{
		Date:        r.Date.Time,
		Description: r.Description,
		Reference:   r.Reference,
		Lines:       make([]ledger.LineInput, len(r.Lines)),
	}
	for i, l := range r.Lines {
		in.Lines[i] = ledger.LineInput{
			AccountID:    l.AccountID,
			CurrencyID:   l.CurrencyID,
			Debit:        l.Debit,
			Credit:       l.Credit,
			ExchangeRate: l.ExchangeRate,
			Memo:         l.Memo,
		}
	}
	return in
}

// EntryResponse is a journal entry with its balance check.
type EntryResponse struct {
	*ledger.JournalEntry
	IsBalanced bool `json:"isBalanced"`
}

// EntriesQuery filters the journal listing.
type EntriesQuery struct {
	AccountID string `form:"accountId"`
	From      string `form:"from"`
	To        string `form:"to"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ReverseEntryRequest dates the reversal; defaults to today.
type ReverseEntryRequest struct {
	Date *Date `json:"date"`
}

// ReconciliationResponse lists every checked pair and the drifted ones.
type ReconciliationResponse struct {
	Results []reconciliation.Result `json:"results"`
	Drifted []reconciliation.Result `json:"drifted"`
}
