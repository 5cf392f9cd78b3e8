package folio

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// stepClock returns strictly increasing timestamps so created_at ordering is deterministic.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

// setupTestDB creates a temporary database for testing and returns a Core instance.
// The caller should defer cleanup() to remove the temp file.
func setupTestDB(t *testing.T) (*Core, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "folio-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	core, err := OpenWithOptions(Options{
		DBPath: filepath.Join(tmpDir, "test.db"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    newStepClock().Now,
	})
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open test db: %v", err)
	}

	cleanup := func() {
		core.Close()
		os.RemoveAll(tmpDir)
	}
	return core, cleanup
}

// testUser registers a user and returns its id.
func testUser(t *testing.T, core *Core, email string) string {
	t.Helper()
	u, err := core.CreateUser(context.Background(), email, "hash", "Test", "User")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u.ID
}

// testPortfolio creates a portfolio owned by userID.
func testPortfolio(t *testing.T, core *Core, userID, name string) string {
	t.Helper()
	p, err := core.CreatePortfolio(context.Background(), userID, CreatePortfolioRequest{Name: name})
	if err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}
	return p.ID
}

// testInvestment creates an empty holding of symbol in portfolioID.
func testInvestment(t *testing.T, core *Core, userID, portfolioID, symbol string) string {
	t.Helper()
	inv, err := core.CreateInvestment(context.Background(), userID, CreateInvestmentRequest{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Name:        symbol + " Inc.",
	})
	if err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	return inv.ID
}

func testTransaction(t *testing.T, core *Core, userID, investmentID string, txType TransactionType, qty, price string) *Transaction {
	t.Helper()
	tx, err := core.RecordTransaction(context.Background(), userID, CreateTransactionRequest{
		InvestmentID:    investmentID,
		TransactionType: txType,
		Quantity:        MustAmount(qty),
		PricePerUnit:    MustAmount(price),
	})
	if err != nil {
		t.Fatalf("failed to record %s %s @ %s: %v", txType, qty, price, err)
	}
	return tx
}

// assertAmount fails the test unless got equals want numerically.
func assertAmount(t *testing.T, got Amount, want, msg string) {
	t.Helper()
	if !got.Equal(MustAmount(want).Decimal) {
		t.Errorf("%s: got %s, want %s", msg, got.String(), want)
	}
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertErrorCode fails the test unless err carries code.
func assertErrorCode(t *testing.T, err error, code ErrorCode, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected %s error but got nil", msg, code)
	}
	if !IsErrorCode(err, code) {
		t.Fatalf("%s: expected %s, got %v", msg, code, err)
	}
}
