// Package ledger provides multi-currency accounts and the journal engine.
//
// Each account keeps one running balance per currency, written only as a
// side effect of posting journal lines or recording deposits/withdrawals.
// The account's legacy total is recomputed from its transaction history.
package ledger

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Account is a monetary account.
type Account struct {
	ID             id.ID       `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	CurrencyID     *id.ID      `db:"currency_id" json:"currencyId,omitempty"`
	InitialBalance types.Money `db:"initial_balance" json:"initialBalance"`
	// Balance is the currency-agnostic total kept for legacy readers.
	Balance types.Money `db:"balance" json:"balance"`
}

// Validate checks account invariants.
func (a *Account) Validate() error {
	if a.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}

// CurrencyBalance is the running balance of one account in one currency.
type CurrencyBalance struct {
	AccountID  id.ID       `db:"account_id" json:"accountId"`
	CurrencyID id.ID       `db:"currency_id" json:"currencyId"`
	Balance    types.Money `db:"balance" json:"balance"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updatedAt"`
}

// MovementType is the kind of a cash movement.
type MovementType string

const (
	Deposit  MovementType = "deposit"
	Withdraw MovementType = "withdraw"
)

// Transaction is an append-only deposit or withdrawal.
type Transaction struct {
	ID         id.ID        `db:"id" json:"id"`
	AccountID  id.ID        `db:"account_id" json:"accountId"`
	Type       MovementType `db:"type" json:"type"`
	Amount     types.Money  `db:"amount" json:"amount"`
	CurrencyID id.ID        `db:"currency_id" json:"currencyId"`
	Rate       types.Ratio  `db:"rate" json:"rate"`
	// Total is Amount x Rate, in base currency.
	Total      types.Money `db:"total" json:"total"`
	IsFull     bool        `db:"is_full" json:"isFull"`
	OccurredOn time.Time   `db:"occurred_on" json:"occurredOn"`
	Notes      string      `db:"notes" json:"notes"`
	EntryID    *id.ID      `db:"entry_id" json:"entryId,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
}

// MovementInput is the command for Deposit and Withdraw.
type MovementInput struct {
	AccountID id.ID       `json:"accountId" validate:"required"`
	Amount    types.Money `json:"amount"`
	// IsFull moves the account's whole current total instead of Amount.
	IsFull bool `json:"isFull"`
	// CurrencyID defaults to the base currency.
	CurrencyID *id.ID `json:"currencyId,omitempty"`
	// Rate defaults to the currency's rate when not positive.
	Rate  types.Ratio `json:"rate"`
	Date  time.Time   `json:"date" validate:"required"`
	Notes string      `json:"notes"`
	// CounterAccountID overrides the service's counter-account policy.
	CounterAccountID *id.ID `json:"counterAccountId,omitempty"`
}

// JournalEntry groups the lines of one business event.
type JournalEntry struct {
	ID          id.ID         `db:"id" json:"id"`
	Number      string        `db:"number" json:"number"`
	EntryDate   time.Time     `db:"entry_date" json:"entryDate"`
	Description string        `db:"description" json:"description"`
	Reference   string        `db:"reference" json:"reference"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	Lines       []JournalLine `db:"-" json:"lines"`
}

// JournalLine assigns a debit or a credit to one account in one currency.
type JournalLine struct {
	ID           id.ID       `db:"id" json:"id"`
	EntryID      id.ID       `db:"entry_id" json:"entryId"`
	LineNo       int         `db:"line_no" json:"lineNo"`
	AccountID    id.ID       `db:"account_id" json:"accountId"`
	CurrencyID   id.ID       `db:"currency_id" json:"currencyId"`
	Debit        types.Money `db:"debit" json:"debit"`
	Credit       types.Money `db:"credit" json:"credit"`
	ExchangeRate types.Ratio `db:"exchange_rate" json:"exchangeRate"`
	// BaseAmount is (Debit or Credit) x ExchangeRate.
	BaseAmount types.Money `db:"base_amount" json:"baseAmount"`
	Memo       string      `db:"memo" json:"memo"`
}

// Delta is the signed effect of the line on its account: +debit -credit.
func (l *JournalLine) Delta() types.Money {
	return l.Debit.Sub(l.Credit)
}

// IsBalanced reports whether the entry's debits and credits agree in base
// currency within one cent. Posting does not require it.
func (e *JournalEntry) IsBalanced() bool {
	debit, credit := types.Zero(), types.Zero()
	for _, l := range e.Lines {
		if l.Debit.IsPositive() {
			debit = debit.Add(l.BaseAmount)
		} else {
			credit = credit.Add(l.BaseAmount)
		}
	}
	return debit.Sub(credit).Abs().LessThan(types.BalanceTolerance)
}

// LineInput is one line of a new entry.
type LineInput struct {
	AccountID id.ID `json:"accountId" validate:"required"`
	// CurrencyID defaults to the account's currency, then the base currency.
	CurrencyID *id.ID      `json:"currencyId,omitempty"`
	Debit      types.Money `json:"debit"`
	Credit     types.Money `json:"credit"`
	// ExchangeRate defaults to the currency's rate when not positive.
	ExchangeRate types.Ratio `json:"exchangeRate"`
	Memo         string      `json:"memo"`
}

// EntryInput is the command that posts a journal entry.
type EntryInput struct {
	Date        time.Time   `json:"date" validate:"required"`
	Description string      `json:"description"`
	Reference   string      `json:"reference"`
	Lines       []LineInput `json:"lines" validate:"required,min=1,dive"`
}

func (in *EntryInput) validateLines() error {
	for i, l := range in.Lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return apperror.NewInvalidAmount("debit/credit", "negative").WithDetail("line", i)
		}
		if l.Debit.IsPositive() == l.Credit.IsPositive() {
			return apperror.NewValidation("line must carry either a debit or a credit").
				WithDetail("line", i)
		}
	}
	return nil
}

// EntryFilter narrows journal listings.
type EntryFilter struct {
	AccountID *id.ID
	From      *time.Time
	To        *time.Time
	Limit     int
}
