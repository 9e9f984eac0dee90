package ledger

import (
	"context"

	"stockledger/internal/core/id"
)

// CounterAccountPolicy picks the account that balances a deposit or
// withdrawal. Returning nil means no journal entry is posted for it.
type CounterAccountPolicy interface {
	CounterAccount(ctx context.Context, kind MovementType, account *Account, currencyID id.ID) (*id.ID, error)
}

// CounterAccountFunc adapts a function to CounterAccountPolicy.
type CounterAccountFunc func(ctx context.Context, kind MovementType, account *Account, currencyID id.ID) (*id.ID, error)

func (f CounterAccountFunc) CounterAccount(ctx context.Context, kind MovementType, account *Account, currencyID id.ID) (*id.ID, error) {
	return f(ctx, kind, account, currencyID)
}

// FixedCounterAccount balances every movement against one account, e.g. a
// cash clearing account. Movements on that account itself are not posted.
func FixedCounterAccount(counterID id.ID) CounterAccountPolicy {
	return CounterAccountFunc(func(_ context.Context, _ MovementType, account *Account, _ id.ID) (*id.ID, error) {
		if account.ID == counterID {
			return nil, nil
		}
		return &counterID, nil
	})
}
