// Package record assembles parsed candidates into canonical transactions.
package record

import (
	"context"
	"fmt"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/classify"
	"github.com/ArionMiles/finsight/pkg/normalize"
)

// Builder promotes candidates into canonical Transaction records. It holds
// no mutable state and performs no I/O of its own; the classification
// engine owns the (timeout-bounded) external call when one is configured.
type Builder struct {
	engine *classify.Engine

	// Person, when set, is stamped on every built transaction. Useful when
	// several people import into one shared database.
	Person string
}

// NewBuilder creates a builder over the given classification engine.
func NewBuilder(engine *classify.Engine) *Builder {
	return &Builder{engine: engine}
}

// Build produces exactly one Transaction for the candidate: the amount is
// normalized into the global sign convention, the description is classified
// into merchant and category (falling back to the Uncategorized sentinel),
// and the source bank identifier is stamped on. An unresolvable amount
// fails the build; the caller skips the candidate.
func (b *Builder) Build(ctx context.Context, c api.Candidate, bank string) (api.Transaction, error) {
	amount, err := normalize.ParseAmount(c.RawAmount)
	if err != nil {
		return api.Transaction{}, fmt.Errorf("building record from %s: %w", c.Source, err)
	}

	res := b.engine.Classify(ctx, c.Description)

	t := api.Transaction{
		Date:         c.Date,
		Time:         c.Time,
		Merchant:     res.Merchant,
		Description:  c.Description,
		Amount:       amount,
		Category:     res.Category,
		Bank:         bank,
		Person:       b.Person,
		ClassifiedBy: res.Source,
	}
	if t.Category == "" {
		t.Category = api.UncategorizedSentinel
	}

	// Balance is best-effort: a bank that prints garbage here still yields
	// a valid transaction.
	if c.RawBalance != "" {
		if bal, err := normalize.ParseAmount(c.RawBalance); err == nil {
			t.Balance = &bal
		}
	}

	return t, nil
}
