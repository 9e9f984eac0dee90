package ledger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/core/validation"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/pkg/logger"
)

var tracer = otel.Tracer("stockledger/ledger")

const reversalPrefix = "REV:"

// Service posts journal entries and records deposits and withdrawals.
type Service struct {
	repo       Repository
	currencies *currency.Service
	numbers    numerator.Generator
	txm        tx.Manager
	policy     CounterAccountPolicy
	audit      audit.Logger
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithCounterAccountPolicy makes deposits and withdrawals post a balancing
// journal entry whenever the policy resolves a counter-account.
func WithCounterAccountPolicy(p CounterAccountPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithAudit records entry reversals.
func WithAudit(l audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

// NewService creates a ledger service.
func NewService(
	repo Repository,
	currencies *currency.Service,
	numbers numerator.Generator,
	txm tx.Manager,
	opts ...Option,
) *Service {
	s := &Service{
		repo:       repo,
		currencies: currencies,
		numbers:    numbers,
		txm:        txm,
		audit:      audit.Nop{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount opens an account.
func (s *Service) CreateAccount(ctx context.Context, a *Account) error {
	if id.IsNil(a.ID) {
		a.ID = id.New()
	}
	if err := a.Validate(); err != nil {
		return err
	}
	a.Balance = a.InitialBalance
	return s.repo.CreateAccount(ctx, a)
}

// GetAccount returns an account by id.
func (s *Service) GetAccount(ctx context.Context, accountID id.ID) (*Account, error) {
	return s.repo.GetAccount(ctx, accountID)
}

// BalanceInCurrency returns the account's running balance in one currency,
// 0 when nothing has touched the pair yet.
func (s *Service) BalanceInCurrency(ctx context.Context, accountID, currencyID id.ID) (types.Money, error) {
	return s.repo.GetCurrencyBalance(ctx, accountID, currencyID)
}

// Balances returns every per-currency balance of the account.
func (s *Service) Balances(ctx context.Context, accountID id.ID) ([]CurrencyBalance, error) {
	return s.repo.ListCurrencyBalances(ctx, accountID)
}

// ApplyCurrencyDelta stores newBalance for the pair. It sets, not adds:
// callers compute the new value first.
func (s *Service) ApplyCurrencyDelta(ctx context.Context, accountID, currencyID id.ID, newBalance types.Money) error {
	return s.repo.UpsertCurrencyBalance(ctx, accountID, currencyID, types.Round2(newBalance))
}

func (s *Service) addToCurrencyBalance(ctx context.Context, accountID, currencyID id.ID, delta types.Money) error {
	current, err := s.repo.GetCurrencyBalance(ctx, accountID, currencyID)
	if err != nil {
		return err
	}
	return s.ApplyCurrencyDelta(ctx, accountID, currencyID, current.Add(delta))
}

// RecomputeAccountTotal returns initial balance plus deposit totals minus
// withdrawal totals, summed across currencies as they were recorded in
// base terms. The result is written back to the account's legacy balance.
func (s *Service) RecomputeAccountTotal(ctx context.Context, accountID id.ID) (types.Money, error) {
	var total types.Money
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		total, err = s.computeTotal(ctx, a)
		if err != nil {
			return err
		}
		return s.repo.SetAccountBalance(ctx, accountID, total)
	})
	return total, err
}

func (s *Service) computeTotal(ctx context.Context, a *Account) (types.Money, error) {
	deposits, withdrawals, err := s.repo.SumMovements(ctx, a.ID)
	if err != nil {
		return types.Zero(), err
	}
	return types.Round2(a.InitialBalance.Add(deposits).Sub(withdrawals)), nil
}

// PostEntry numbers and stores a journal entry and applies every line's
// +debit/-credit to its account's balance in the line's currency.
//
// Entries are not required to balance; use JournalEntry.IsBalanced to
// enforce that policy where it is wanted.
func (s *Service) PostEntry(ctx context.Context, in EntryInput) (*JournalEntry, error) {
	ctx, span := tracer.Start(ctx, "ledger.PostEntry")
	defer span.End()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := in.validateLines(); err != nil {
		return nil, err
	}

	var entry *JournalEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		accounts, err := s.lockAccounts(ctx, in.Lines)
		if err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, numerator.JournalConfig())
		if err != nil {
			return fmt.Errorf("next journal number: %w", err)
		}

		e := &JournalEntry{
			ID:          id.New(),
			Number:      number,
			EntryDate:   in.Date,
			Description: in.Description,
			Reference:   in.Reference,
			CreatedAt:   s.now().UTC(),
			Lines:       make([]JournalLine, 0, len(in.Lines)),
		}
		for i, li := range in.Lines {
			cur, err := s.currencies.Resolve(ctx, lineCurrency(li, accounts[li.AccountID]))
			if err != nil {
				return err
			}
			rate := currency.RateOr(li.ExchangeRate, cur)
			amount := types.Round2(li.Debit.Add(li.Credit))

			e.Lines = append(e.Lines, JournalLine{
				ID:           id.New(),
				EntryID:      e.ID,
				LineNo:       i + 1,
				AccountID:    li.AccountID,
				CurrencyID:   cur.ID,
				Debit:        types.Round2(li.Debit),
				Credit:       types.Round2(li.Credit),
				ExchangeRate: rate,
				BaseAmount:   types.Round2(amount.Mul(rate)),
				Memo:         li.Memo,
			})
		}

		if err := s.repo.CreateEntry(ctx, e); err != nil {
			return fmt.Errorf("create journal entry: %w", err)
		}
		for i := range e.Lines {
			l := &e.Lines[i]
			if err := s.addToCurrencyBalance(ctx, l.AccountID, l.CurrencyID, l.Delta()); err != nil {
				return fmt.Errorf("apply line %d: %w", l.LineNo, err)
			}
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("journal.number", entry.Number))
	if !entry.IsBalanced() {
		logger.Warn(ctx, "unbalanced journal entry posted", "number", entry.Number)
	}
	logger.Info(ctx, "journal entry posted", "number", entry.Number, "lines", len(entry.Lines))
	return entry, nil
}

// lockAccounts locks every distinct account of the lines in id order, so
// concurrent postings touching the same accounts cannot deadlock.
func (s *Service) lockAccounts(ctx context.Context, lines []LineInput) (map[id.ID]*Account, error) {
	ids := make([]id.ID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.AccountID)
	}
	return s.lockAccountIDs(ctx, ids)
}

func (s *Service) lockAccountIDs(ctx context.Context, accountIDs []id.ID) (map[id.ID]*Account, error) {
	ids := make([]id.ID, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		if !slices.Contains(ids, accountID) {
			ids = append(ids, accountID)
		}
	}
	slices.SortFunc(ids, func(a, b id.ID) int {
		switch {
		case id.Less(a, b):
			return -1
		case id.Less(b, a):
			return 1
		}
		return 0
	})

	locked, err := s.repo.LockAccounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	accounts := make(map[id.ID]*Account, len(locked))
	for i := range locked {
		accounts[locked[i].ID] = &locked[i]
	}
	for _, accountID := range ids {
		if _, ok := accounts[accountID]; !ok {
			return nil, apperror.NewNotFound("account", accountID.String())
		}
	}
	return accounts, nil
}

func lineCurrency(l LineInput, a *Account) *id.ID {
	if l.CurrencyID != nil {
		return l.CurrencyID
	}
	if a != nil {
		return a.CurrencyID
	}
	return nil
}

// Deposit records money coming into an account.
func (s *Service) Deposit(ctx context.Context, in MovementInput) (*Transaction, error) {
	return s.move(ctx, Deposit, in)
}

// Withdraw records money leaving an account. A withdrawal whose base total
// exceeds the account's recomputed total is rejected.
func (s *Service) Withdraw(ctx context.Context, in MovementInput) (*Transaction, error) {
	return s.move(ctx, Withdraw, in)
}

func (s *Service) move(ctx context.Context, kind MovementType, in MovementInput) (*Transaction, error) {
	ctx, span := tracer.Start(ctx, "ledger."+string(kind))
	defer span.End()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !in.IsFull && !in.Amount.IsPositive() {
		return nil, apperror.NewInvalidAmount("amount", in.Amount.String())
	}

	var result *Transaction
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		account, err := s.repo.GetAccount(ctx, in.AccountID)
		if err != nil {
			return err
		}
		cur, err := s.currencies.Resolve(ctx, in.CurrencyID)
		if err != nil {
			return err
		}
		rate := currency.RateOr(in.Rate, cur)

		counterID, err := s.counterAccount(ctx, kind, account, cur.ID, in.CounterAccountID)
		if err != nil {
			return err
		}
		lockIDs := []id.ID{account.ID}
		if counterID != nil {
			lockIDs = append(lockIDs, *counterID)
		}
		locked, err := s.lockAccountIDs(ctx, lockIDs)
		if err != nil {
			return err
		}
		account = locked[account.ID]

		current, err := s.computeTotal(ctx, account)
		if err != nil {
			return err
		}

		amount := types.Round2(in.Amount)
		total := types.Round2(amount.Mul(rate))
		if in.IsFull {
			if !current.IsPositive() {
				return apperror.NewNoBalance(account.ID.String(), current)
			}
			// The base total moves exactly; the currency amount is derived.
			total = current
			amount = types.Round2(current.Div(rate))
		}
		if kind == Withdraw && !in.IsFull && total.GreaterThan(current) {
			return apperror.NewInsufficientBalance(account.ID.String(), total, current)
		}

		t := &Transaction{
			ID:         id.New(),
			AccountID:  account.ID,
			Type:       kind,
			Amount:     amount,
			CurrencyID: cur.ID,
			Rate:       rate,
			Total:      total,
			IsFull:     in.IsFull,
			OccurredOn: in.Date,
			Notes:      in.Notes,
			CreatedAt:  s.now().UTC(),
		}

		if counterID != nil {
			entry, err := s.PostEntry(ctx, movementEntry(kind, t, *counterID))
			if err != nil {
				return err
			}
			t.EntryID = &entry.ID
		} else {
			delta := amount
			if kind == Withdraw {
				delta = amount.Neg()
			}
			if err := s.addToCurrencyBalance(ctx, account.ID, cur.ID, delta); err != nil {
				return err
			}
		}

		if err := s.repo.CreateTransaction(ctx, t); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		newTotal, err := s.computeTotal(ctx, account)
		if err != nil {
			return err
		}
		if err := s.repo.SetAccountBalance(ctx, account.ID, newTotal); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "account movement recorded",
		"account_id", result.AccountID,
		"type", string(kind),
		"total", result.Total.String())
	return result, nil
}

func (s *Service) counterAccount(ctx context.Context, kind MovementType, a *Account, currencyID id.ID, explicit *id.ID) (*id.ID, error) {
	if explicit != nil {
		if *explicit == a.ID {
			return nil, apperror.NewValidation("counter account must differ from account").
				WithDetail("field", "counterAccountId")
		}
		return explicit, nil
	}
	if s.policy == nil {
		return nil, nil
	}
	return s.policy.CounterAccount(ctx, kind, a, currencyID)
}

// movementEntry builds the entry balancing a movement: a deposit debits the
// account and credits the counter-account, a withdrawal the reverse.
func movementEntry(kind MovementType, t *Transaction, counterID id.ID) EntryInput {
	currencyID := t.CurrencyID
	accountLine := LineInput{AccountID: t.AccountID, CurrencyID: &currencyID, ExchangeRate: t.Rate, Memo: t.Notes}
	counterLine := LineInput{AccountID: counterID, CurrencyID: &currencyID, ExchangeRate: t.Rate, Memo: t.Notes}
	if kind == Deposit {
		accountLine.Debit, counterLine.Credit = t.Amount, t.Amount
	} else {
		counterLine.Debit, accountLine.Credit = t.Amount, t.Amount
	}
	return EntryInput{
		Date:        t.OccurredOn,
		Description: string(kind),
		Reference:   string(kind) + ":" + t.ID.String(),
		Lines:       []LineInput{accountLine, counterLine},
	}
}

// ReverseEntry posts the mirror of an entry (debits and credits swapped),
// referenced as REV:<number>. An entry can be reversed once.
func (s *Service) ReverseEntry(ctx context.Context, entryID id.ID, date time.Time) (*JournalEntry, error) {
	var reversal *JournalEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		original, err := s.repo.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		reference := reversalPrefix + original.Number
		if _, err := s.repo.FindEntryByReference(ctx, reference); err == nil {
			return apperror.NewConflict("entry already reversed").WithDetail("number", original.Number)
		} else if !apperror.IsNotFound(err) {
			return err
		}

		in := EntryInput{
			Date:        date,
			Description: "Reversal of " + original.Number,
			Reference:   reference,
			Lines:       make([]LineInput, len(original.Lines)),
		}
		for i, l := range original.Lines {
			currencyID := l.CurrencyID
			in.Lines[i] = LineInput{
				AccountID:    l.AccountID,
				CurrencyID:   &currencyID,
				Debit:        l.Credit,
				Credit:       l.Debit,
				ExchangeRate: l.ExchangeRate,
				Memo:         l.Memo,
			}
		}

		reversal, err = s.PostEntry(ctx, in)
		if err != nil {
			return err
		}
		return s.audit.LogChange(ctx, "journal_entry", original.ID, audit.ActionReverse, map[string]any{
			"number":   original.Number,
			"reversal": reversal.Number,
		})
	})
	return reversal, err
}

// GetEntry returns an entry with its lines.
func (s *Service) GetEntry(ctx context.Context, entryID id.ID) (*JournalEntry, error) {
	return s.repo.GetEntry(ctx, entryID)
}

// ListEntries returns entry headers, newest first.
func (s *Service) ListEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error) {
	return s.repo.ListEntries(ctx, f)
}

// ListTransactions returns the account's movements, oldest first.
func (s *Service) ListTransactions(ctx context.Context, accountID id.ID) ([]Transaction, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, accountID)
}
