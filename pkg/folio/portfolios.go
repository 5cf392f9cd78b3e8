package folio

import (
	"context"
	"database/sql"
	"fmt"
)

const portfolioColumns = "id, user_id, name, description, is_active, deleted_at, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(row rowScanner) (*Portfolio, error) {
	var (
		p                    Portfolio
		description          sql.NullString
		deletedAt            sql.NullString
		createdAt, updatedAt string
		active               int
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &description, &active, &deletedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Description = stringFromNull(description)
	p.IsActive = active != 0
	var err error
	if p.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPortfolios returns the live portfolios of a user, newest first.
func (c *Core) ListPortfolios(ctx context.Context, userID string) ([]Portfolio, error) {
	rows, err := c.query(ctx, c.db, `
		SELECT `+portfolioColumns+`
		FROM portfolios
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portfolios := []Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, dbError("failed to scan portfolio", err)
		}
		portfolios = append(portfolios, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("failed to list portfolios", err)
	}
	return portfolios, nil
}

// GetPortfolio returns one portfolio owned by userID.
func (c *Core) GetPortfolio(ctx context.Context, userID, id string) (*Portfolio, error) {
	return c.ownedPortfolio(ctx, c.db, id, userID)
}

// CreatePortfolio creates an active portfolio for userID.
func (c *Core) CreatePortfolio(ctx context.Context, userID string, req CreatePortfolioRequest) (*Portfolio, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	now := c.timestamp()
	p := &Portfolio{
		ID:          newID(),
		UserID:      userID,
		Name:        req.Name,
		Description: stringFromNull(nullString(req.Description)),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := c.exec(ctx, tx, `
			INSERT INTO portfolios (id, user_id, name, description, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, 1, ?, ?)
		`, p.ID, p.UserID, p.Name, nullString(p.Description), formatTime(now), formatTime(now)); err != nil {
			return err
		}
		return c.addOperationLog(ctx, tx, OperationLog{
			UserID:    &userID,
			Operation: OpPortfolioCreated,
			EntityID:  &p.ID,
			Details:   stringPtr(p.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("portfolio created", "portfolio_id", p.ID, "user_id", userID)
	return p, nil
}

// UpdatePortfolio applies the non-nil fields of req.
func (c *Core) UpdatePortfolio(ctx context.Context, userID, id string, req UpdatePortfolioRequest) (*Portfolio, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	var updated *Portfolio
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := c.ownedPortfolio(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		old := p.Name
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Description != nil {
			p.Description = stringFromNull(nullString(req.Description))
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}
		p.UpdatedAt = c.timestamp()
		if _, err := c.exec(ctx, tx, `
			UPDATE portfolios SET name = ?, description = ?, is_active = ?, updated_at = ?
			WHERE id = ?
		`, p.Name, nullString(p.Description), boolToInt(p.IsActive), formatTime(p.UpdatedAt), p.ID); err != nil {
			return err
		}
		updated = p
		return c.addOperationLog(ctx, tx, OperationLog{
			UserID:    &userID,
			Operation: OpPortfolioUpdated,
			EntityID:  &p.ID,
			OldValue:  &old,
			NewValue:  stringPtr(p.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePortfolio soft-deletes a portfolio; its investments become unreachable.
func (c *Core) DeletePortfolio(ctx context.Context, userID, id string) error {
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := c.ownedPortfolio(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		now := formatTime(c.timestamp())
		if _, err := c.exec(ctx, tx, `
			UPDATE portfolios SET deleted_at = ?, is_active = 0, updated_at = ? WHERE id = ?
		`, now, now, p.ID); err != nil {
			return err
		}
		return c.addOperationLog(ctx, tx, OperationLog{
			UserID:    &userID,
			Operation: OpPortfolioDeleted,
			EntityID:  &p.ID,
			Details:   stringPtr(fmt.Sprintf("soft-deleted %q", p.Name)),
		})
	})
	if err != nil {
		return err
	}
	c.cache.invalidate(id)
	c.logger.Info("portfolio deleted", "portfolio_id", id, "user_id", userID)
	return nil
}
