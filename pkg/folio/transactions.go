package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const transactionColumns = `t.id, t.investment_id, t.transaction_type, t.quantity, t.price_per_unit, t.fees,
	t.transaction_date, t.notes, t.created_at, i.symbol`

func scanTransaction(row rowScanner) (*Transaction, error) {
	var (
		t                 Transaction
		txType            string
		fees, notes       sql.NullString
		txDate, createdAt string
	)
	if err := row.Scan(&t.ID, &t.InvestmentID, &txType, &t.Quantity, &t.PricePerUnit, &fees,
		&txDate, &notes, &createdAt, &t.Symbol); err != nil {
		return nil, err
	}
	t.TransactionType = TransactionType(txType)
	t.Notes = stringFromNull(notes)
	var err error
	if t.Fees, err = scanNullAmount(fees); err != nil {
		return nil, err
	}
	if t.TransactionDate, err = parseTime(txDate); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// RecordTransaction appends a buy or sell to a holding's ledger and moves the
// holding to the state the cost-basis engine computes, in one database
// transaction. Writes to the same holding are serialised, so concurrent
// recordings never lose an update. A rejected sell writes nothing.
func (c *Core) RecordTransaction(ctx context.Context, userID string, req CreateTransactionRequest) (*Transaction, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if _, err := c.ownedInvestment(ctx, c.db, req.InvestmentID, userID); err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(req.InvestmentID)
	defer unlock()

	now := c.timestamp()
	txDate := now
	if req.TransactionDate != nil {
		txDate = req.TransactionDate.UTC()
	}
	record := &Transaction{
		ID:              newID(),
		InvestmentID:    req.InvestmentID,
		TransactionType: req.TransactionType,
		Quantity:        req.Quantity,
		PricePerUnit:    req.PricePerUnit,
		Fees:            req.Fees,
		TransactionDate: txDate,
		Notes:           stringFromNull(nullString(req.Notes)),
		CreatedAt:       now,
	}

	var portfolioID string
	var before, after HoldingState
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		// Re-read under the lock; the holding may have moved or been deleted.
		inv, err := c.ownedInvestment(ctx, tx, req.InvestmentID, userID)
		if err != nil {
			return err
		}
		portfolioID = inv.PortfolioID
		record.Symbol = inv.Symbol
		before = inv.State()

		after, err = ApplyTransaction(before, req.TransactionType, req.Quantity, req.PricePerUnit)
		if err != nil {
			return err
		}

		if _, err := c.exec(ctx, tx, `
			INSERT INTO transactions (id, investment_id, transaction_type, quantity, price_per_unit, fees,
				transaction_date, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, record.ID, record.InvestmentID, string(record.TransactionType), record.Quantity, record.PricePerUnit,
			nullAmount(record.Fees), formatTime(record.TransactionDate), nullString(record.Notes),
			formatTime(record.CreatedAt)); err != nil {
			return err
		}
		// Every recorded price becomes the holding's last known price, sells included.
		if _, err := c.exec(ctx, tx, `
			UPDATE investments
			SET quantity = ?, average_purchase_price = ?, current_price = ?, updated_at = ?
			WHERE id = ?
		`, after.Quantity, after.AveragePrice, record.PricePerUnit, formatTime(now), inv.ID); err != nil {
			return err
		}
		details := fmt.Sprintf("%s %s %s @ %s", record.TransactionType, record.Quantity.String(),
			inv.Symbol, record.PricePerUnit.String())
		return c.addOperationLog(ctx, tx, OperationLog{
			UserID:    &userID,
			Operation: OpTransactionRecorded,
			EntityID:  &record.ID,
			Details:   &details,
			OldValue:  stringPtr(formatHolding(before)),
			NewValue:  stringPtr(formatHolding(after)),
		})
	})
	if err != nil {
		if IsErrorCode(err, ErrCodeInsufficientQuantity) {
			c.logger.Warn("sell rejected", "investment_id", req.InvestmentID, "error", err)
		}
		return nil, err
	}

	c.cache.invalidate(portfolioID)
	c.logger.Info("transaction recorded",
		"transaction_id", record.ID,
		"investment_id", record.InvestmentID,
		"type", record.TransactionType,
		"quantity", after.Quantity.String(),
		"average_price", after.AveragePrice.String(),
	)
	return record, nil
}

func formatHolding(h HoldingState) string {
	return fmt.Sprintf("quantity=%s avg=%s", h.Quantity.String(), h.AveragePrice.String())
}

// ListTransactions returns one page of a portfolio's ledger, newest
// transaction date first. Total counts the filtered set before paging.
func (c *Core) ListTransactions(ctx context.Context, userID, portfolioID string, filter TransactionFilter) (*TransactionPage, error) {
	if err := filter.normalize(); err != nil {
		return nil, err
	}
	if err := c.VerifyPortfolioOwnership(ctx, portfolioID, userID); err != nil {
		return nil, err
	}

	conditions := []string{"i.portfolio_id = ?", "i.deleted_at IS NULL"}
	args := []any{portfolioID}
	if filter.Type != "" {
		conditions = append(conditions, "t.transaction_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "t.transaction_date >= ?")
		args = append(args, formatTime(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "t.transaction_date <= ?")
		args = append(args, formatTime(*filter.EndDate))
	}
	from := " FROM transactions t JOIN investments i ON i.id = t.investment_id WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := c.queryRow(ctx, c.db, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, dbError("failed to count transactions", err)
	}

	query := "SELECT " + transactionColumns + from +
		" ORDER BY t.transaction_date DESC, t.created_at DESC, t.id LIMIT ? OFFSET ?"
	transactions, err := c.collectTransactions(ctx, query, append(args, filter.Limit, filter.offset())...)
	if err != nil {
		return nil, err
	}
	return &TransactionPage{
		Transactions: transactions,
		Total:        total,
		Page:         filter.Page,
		Limit:        filter.Limit,
	}, nil
}

// ListInvestmentTransactions returns the full ledger of one holding.
func (c *Core) ListInvestmentTransactions(ctx context.Context, userID, investmentID string) ([]Transaction, error) {
	if _, err := c.ownedInvestment(ctx, c.db, investmentID, userID); err != nil {
		return nil, err
	}
	return c.collectTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t JOIN investments i ON i.id = t.investment_id
		WHERE t.investment_id = ?
		ORDER BY t.transaction_date DESC, t.created_at DESC, t.id
	`, investmentID)
}

// GetTransaction returns one ledger entry reachable by userID.
func (c *Core) GetTransaction(ctx context.Context, userID, id string) (*Transaction, error) {
	if !IsValidID(id) {
		return nil, notFound("Transaction")
	}
	row := c.queryRow(ctx, c.db, `
		SELECT `+transactionColumns+`
		FROM transactions t JOIN investments i ON i.id = t.investment_id
		WHERE t.id = ?
	`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Transaction")
	}
	if err != nil {
		return nil, dbError("failed to load transaction", err)
	}
	if _, err := c.ownedInvestment(ctx, c.db, t.InvestmentID, userID); err != nil {
		if IsErrorCode(err, ErrCodeNotFound) {
			return nil, notFound("Transaction")
		}
		return nil, err
	}
	return t, nil
}

func (c *Core) collectTransactions(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := c.query(ctx, c.db, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, dbError("failed to scan transaction", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("failed to list transactions", err)
	}
	return transactions, nil
}
