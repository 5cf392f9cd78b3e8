package folio

import (
	"context"
	"database/sql"
	"errors"
)

// VerifyPortfolioOwnership succeeds when portfolioID names a live portfolio
// owned by userID. Missing and soft-deleted portfolios are NotFound; a
// portfolio owned by someone else is AccessDenied.
func (c *Core) VerifyPortfolioOwnership(ctx context.Context, portfolioID, userID string) error {
	_, err := c.ownedPortfolio(ctx, c.db, portfolioID, userID)
	return err
}

func (c *Core) ownedPortfolio(ctx context.Context, q queryer, portfolioID, userID string) (*Portfolio, error) {
	if !IsValidID(portfolioID) {
		return nil, notFound("Portfolio")
	}
	p, err := c.getPortfolioRow(ctx, q, portfolioID)
	if err != nil {
		return nil, err
	}
	if p.DeletedAt != nil {
		return nil, notFound("Portfolio")
	}
	if p.UserID != userID {
		c.logger.Warn("portfolio access denied", "portfolio_id", portfolioID, "user_id", userID)
		return nil, accessDenied()
	}
	return p, nil
}

// ownedInvestment resolves a live investment and checks its portfolio chain.
func (c *Core) ownedInvestment(ctx context.Context, q queryer, investmentID, userID string) (*Investment, error) {
	if !IsValidID(investmentID) {
		return nil, notFound("Investment")
	}
	inv, err := c.getInvestmentRow(ctx, q, investmentID)
	if err != nil {
		return nil, err
	}
	if inv.DeletedAt != nil {
		return nil, notFound("Investment")
	}
	if _, err := c.ownedPortfolio(ctx, q, inv.PortfolioID, userID); err != nil {
		if IsErrorCode(err, ErrCodeNotFound) {
			return nil, notFound("Investment")
		}
		return nil, err
	}
	return inv, nil
}

func (c *Core) getPortfolioRow(ctx context.Context, q queryer, id string) (*Portfolio, error) {
	row := c.queryRow(ctx, q, `SELECT `+portfolioColumns+` FROM portfolios WHERE id = ?`, id)
	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Portfolio")
	}
	if err != nil {
		return nil, dbError("failed to load portfolio", err)
	}
	return p, nil
}
