package folio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyPortfolioOwnership(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	alice := testUser(t, core, "alice@example.com")
	bob := testUser(t, core, "bob@example.com")
	portfolio := testPortfolio(t, core, alice, "Alice")

	assertNoError(t, core.VerifyPortfolioOwnership(ctx, portfolio, alice), "owner")
	assertErrorCode(t, core.VerifyPortfolioOwnership(ctx, portfolio, bob), ErrCodeAccessDenied, "other user")
	assertErrorCode(t, core.VerifyPortfolioOwnership(ctx, newID(), alice), ErrCodeNotFound, "missing")
	assertErrorCode(t, core.VerifyPortfolioOwnership(ctx, "bad", alice), ErrCodeNotFound, "malformed")

	assertNoError(t, core.DeletePortfolio(ctx, alice, portfolio), "delete")
	assertErrorCode(t, core.VerifyPortfolioOwnership(ctx, portfolio, alice), ErrCodeNotFound, "soft-deleted")
	assertErrorCode(t, core.VerifyPortfolioOwnership(ctx, portfolio, bob), ErrCodeNotFound, "soft-deleted, other user")
}

// Every read and write on another user's resources is refused.
func TestOwnership_CrossUserAccessDenied(t *testing.T) {
	core, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	alice := testUser(t, core, "alice@example.com")
	mallory := testUser(t, core, "mallory@example.com")
	portfolio := testPortfolio(t, core, alice, "Alice")
	invID := testInvestment(t, core, alice, portfolio, "AAPL")
	tx := testTransaction(t, core, alice, invID, TransactionTypeBuy, "5", "100")

	newName := "stolen"
	checks := map[string]func() error{
		"get portfolio": func() error { _, err := core.GetPortfolio(ctx, mallory, portfolio); return err },
		"update portfolio": func() error {
			_, err := core.UpdatePortfolio(ctx, mallory, portfolio, UpdatePortfolioRequest{Name: &newName})
			return err
		},
		"delete portfolio": func() error { return core.DeletePortfolio(ctx, mallory, portfolio) },
		"summary":          func() error { _, err := core.GetPortfolioSummary(ctx, mallory, portfolio); return err },
		"list investments": func() error { _, err := core.ListInvestments(ctx, mallory, portfolio); return err },
		"create investment": func() error {
			_, err := core.CreateInvestment(ctx, mallory, CreateInvestmentRequest{PortfolioID: portfolio, Symbol: "X", Name: "X"})
			return err
		},
		"get investment": func() error { _, err := core.GetInvestment(ctx, mallory, invID); return err },
		"update investment": func() error {
			_, err := core.UpdateInvestment(ctx, mallory, invID, UpdateInvestmentRequest{Name: &newName})
			return err
		},
		"delete investment": func() error { return core.DeleteInvestment(ctx, mallory, invID) },
		"record transaction": func() error {
			_, err := core.RecordTransaction(ctx, mallory, CreateTransactionRequest{
				InvestmentID: invID, TransactionType: TransactionTypeSell,
				Quantity: MustAmount("5"), PricePerUnit: MustAmount("1"),
			})
			return err
		},
		"list transactions": func() error {
			_, err := core.ListTransactions(ctx, mallory, portfolio, TransactionFilter{})
			return err
		},
		"list investment transactions": func() error {
			_, err := core.ListInvestmentTransactions(ctx, mallory, invID)
			return err
		},
		"get transaction": func() error { _, err := core.GetTransaction(ctx, mallory, tx.ID); return err },
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			assertErrorCode(t, check(), ErrCodeAccessDenied, name)
		})
	}

	// Nothing changed for the owner.
	inv, err := core.GetInvestment(ctx, alice, invID)
	assertNoError(t, err, "owner read")
	assertAmount(t, inv.Quantity, "5", "quantity")
	assert.Equal(t, "AAPL Inc.", inv.Name)
	p, err := core.GetPortfolio(ctx, alice, portfolio)
	assertNoError(t, err, "owner portfolio")
	assert.Equal(t, "Alice", p.Name)
}
