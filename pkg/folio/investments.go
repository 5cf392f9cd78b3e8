package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const investmentColumns = `id, portfolio_id, asset_type, symbol, name, quantity, average_purchase_price,
	current_price, currency, notes, is_active, deleted_at, created_at, updated_at`

func scanInvestment(row rowScanner) (*Investment, error) {
	var (
		inv                        Investment
		assetType, currency, notes sql.NullString
		currentPrice, deletedAt    sql.NullString
		createdAt, updatedAt       string
		active                     int
	)
	if err := row.Scan(&inv.ID, &inv.PortfolioID, &assetType, &inv.Symbol, &inv.Name, &inv.Quantity,
		&inv.AveragePurchasePrice, &currentPrice, &currency, &notes, &active, &deletedAt,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	inv.AssetType = stringFromNull(assetType)
	inv.Currency = stringFromNull(currency)
	inv.Notes = stringFromNull(notes)
	inv.IsActive = active != 0
	var err error
	if inv.CurrentPrice, err = scanNullAmount(currentPrice); err != nil {
		return nil, err
	}
	if inv.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Core) getInvestmentRow(ctx context.Context, q queryer, id string) (*Investment, error) {
	row := c.queryRow(ctx, q, "SELECT "+investmentColumns+" FROM investments WHERE id = ?", id)
	inv, err := scanInvestment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Investment")
	}
	if err != nil {
		return nil, dbError("failed to load investment", err)
	}
	return inv, nil
}

// listInvestments returns the live holdings of a portfolio, newest first.
// Callers are responsible for the ownership check.
func (c *Core) listInvestments(ctx context.Context, q queryer, portfolioID string) ([]Investment, error) {
	rows, err := c.query(ctx, q, `
		SELECT `+investmentColumns+`
		FROM investments
		WHERE portfolio_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, id
	`, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	investments := []Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, dbError("failed to scan investment", err)
		}
		investments = append(investments, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("failed to list investments", err)
	}
	return investments, nil
}

// ListInvestments returns the live holdings of a portfolio owned by userID.
func (c *Core) ListInvestments(ctx context.Context, userID, portfolioID string) ([]Investment, error) {
	if err := c.VerifyPortfolioOwnership(ctx, portfolioID, userID); err != nil {
		return nil, err
	}
	return c.listInvestments(ctx, c.db, portfolioID)
}

// GetInvestment returns one live holding reachable by userID.
func (c *Core) GetInvestment(ctx context.Context, userID, id string) (*Investment, error) {
	return c.ownedInvestment(ctx, c.db, id, userID)
}

// CreateInvestment adds an empty holding to a portfolio. Quantity and average
// price start at zero; only transactions move them.
func (c *Core) CreateInvestment(ctx context.Context, userID string, req CreateInvestmentRequest) (*Investment, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	now := c.timestamp()
	inv := &Investment{
		ID:                   newID(),
		PortfolioID:          req.PortfolioID,
		AssetType:            req.AssetType,
		Symbol:               req.Symbol,
		Name:                 req.Name,
		Quantity:             NewAmountFromInt(0),
		AveragePurchasePrice: NewAmountFromInt(0),
		Currency:             req.Currency,
		Notes:                stringFromNull(nullString(req.Notes)),
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if req.CurrentPrice != nil {
		inv.CurrentPrice = amountPtr(req.CurrentPrice.asPrice())
	}

	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := c.ownedPortfolio(ctx, tx, req.PortfolioID, userID); err != nil {
			return err
		}
		if err := c.checkAssetType(ctx, tx, inv.AssetType); err != nil {
			return err
		}
		if _, err := c.exec(ctx, tx, `
			INSERT INTO investments (id, portfolio_id, asset_type, symbol, name, quantity, average_purchase_price,
				current_price, currency, notes, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		`, inv.ID, inv.PortfolioID, nullString(inv.AssetType), inv.Symbol, inv.Name, inv.Quantity,
			inv.AveragePurchasePrice, nullAmount(inv.CurrentPrice), nullString(inv.Currency), nullString(inv.Notes),
			formatTime(now), formatTime(now)); err != nil {
			return err
		}
		return c.addOperationLog(ctx, tx, OperationLog{
			UserID:    &userID,
			Operation: OpInvestmentCreated,
			EntityID:  &inv.ID,
			Details:   stringPtr(fmt.Sprintf("%s in portfolio %s", inv.Symbol, inv.PortfolioID)),
		})
	})
	if err != nil {
		return nil, err
	}
	c.cache.invalidate(inv.PortfolioID)
	c.logger.Info("holding created", "investment_id", inv.ID, "portfolio_id", inv.PortfolioID, "symbol", inv.Symbol)
	return inv, nil
}

// UpdateInvestment applies the non-nil fields of req. Quantity and average
// price are owned by the ledger and cannot be changed here.
func (c *Core) UpdateInvestment(ctx context.Context, userID, id string, req UpdateInvestmentRequest) (*Investment, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var updated *Investment
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		inv, err := c.ownedInvestment(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if req.empty() {
			updated = inv
			return nil
		}
		if err := c.checkAssetType(ctx, tx, req.AssetType); err != nil {
			return err
		}
		if req.AssetType != nil {
			inv.AssetType = req.AssetType
		}
		if req.Symbol != nil {
			inv.Symbol = *req.Symbol
		}
		if req.Name != nil {
			inv.Name = *req.Name
		}
		if req.CurrentPrice != nil {
			inv.CurrentPrice = amountPtr(req.CurrentPrice.asPrice())
		}
		if req.Currency != nil {
			inv.Currency = req.Currency
		}
		if req.Notes != nil {
			inv.Notes = stringFromNull(nullString(req.Notes))
		}
		inv.UpdatedAt = c.timestamp()
		if _, err := c.exec(ctx, tx, `
			UPDATE investments
			SET asset_type = ?, symbol = ?, name = ?, current_price = ?, currency = ?, notes = ?, updated_at = ?
			WHERE id = ?
		`, nullString(inv.AssetType), inv.Symbol, inv.Name, nullAmount(inv.CurrentPrice),
			nullString(inv.Currency), nullString(inv.Notes), formatTime(inv.UpdatedAt), inv.ID); err != nil {
			return err
		}
		updated = inv
		return c.addOperationLog(ctx, tx, OperationLog{
			UserID:    &userID,
			Operation: OpInvestmentUpdated,
			EntityID:  &inv.ID,
			Details:   stringPtr(inv.Symbol),
		})
	})
	if err != nil {
		return nil, err
	}
	c.cache.invalidate(updated.PortfolioID)
	return updated, nil
}

// DeleteInvestment soft-deletes a holding. Its ledger is kept but no longer listed.
func (c *Core) DeleteInvestment(ctx context.Context, userID, id string) error {
	unlock := c.locks.Lock(id)
	defer unlock()

	var portfolioID string
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		inv, err := c.ownedInvestment(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		portfolioID = inv.PortfolioID
		now := formatTime(c.timestamp())
		if _, err := c.exec(ctx, tx, `
			UPDATE investments SET deleted_at = ?, is_active = 0, updated_at = ? WHERE id = ?
		`, now, now, inv.ID); err != nil {
			return err
		}
		return c.addOperationLog(ctx, tx, OperationLog{
			UserID:    &userID,
			Operation: OpInvestmentDeleted,
			EntityID:  &inv.ID,
			Details:   stringPtr(inv.Symbol),
		})
	})
	if err != nil {
		return err
	}
	c.cache.invalidate(portfolioID)
	c.logger.Info("holding deleted", "investment_id", id, "portfolio_id", portfolioID)
	return nil
}

func (c *Core) checkAssetType(ctx context.Context, q queryer, code *string) error {
	if code == nil {
		return nil
	}
	ok, err := c.assetTypeExists(ctx, q, *code)
	if err != nil {
		return err
	}
	if !ok {
		return validationError("Unknown asset type: %s", *code)
	}
	return nil
}
