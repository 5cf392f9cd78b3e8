package folio

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SaveRefreshToken stores a newly issued refresh token for userID.
func (c *Core) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) (*RefreshToken, error) {
	rt := &RefreshToken{
		ID:        newID(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: c.timestamp(),
	}
	if _, err := c.exec(ctx, c.db, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, rt.ID, rt.UserID, rt.Token, formatTime(rt.ExpiresAt), formatTime(rt.CreatedAt)); err != nil {
		return nil, err
	}
	return rt, nil
}

// GetRefreshToken returns the stored record for token, revoked or not.
func (c *Core) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	var (
		rt                   RefreshToken
		expiresAt, createdAt string
		revoked              int
	)
	err := c.queryRow(ctx, c.db, `
		SELECT id, user_id, token, expires_at, revoked, created_at FROM refresh_tokens WHERE token = ?
	`, token).Scan(&rt.ID, &rt.UserID, &rt.Token, &expiresAt, &revoked, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Refresh token")
	}
	if err != nil {
		return nil, dbError("failed to load refresh token", err)
	}
	rt.Revoked = revoked != 0
	if rt.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, dbError("failed to parse refresh token", err)
	}
	if rt.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, dbError("failed to parse refresh token", err)
	}
	return &rt, nil
}

// RotateRefreshToken revokes oldToken and stores newToken atomically.
// It fails with ErrCodeUnauthorized if oldToken was already revoked.
func (c *Core) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, expiresAt time.Time) error {
	return c.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := c.exec(ctx, tx, `
			UPDATE refresh_tokens SET revoked = 1 WHERE token = ? AND user_id = ? AND revoked = 0
		`, oldToken, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return dbError("failed to revoke refresh token", err)
		}
		if n == 0 {
			return NewError(ErrCodeUnauthorized, "Invalid refresh token")
		}
		_, err = c.exec(ctx, tx, `
			INSERT INTO refresh_tokens (id, user_id, token, expires_at, revoked, created_at)
			VALUES (?, ?, ?, ?, 0, ?)
		`, newID(), userID, newToken, formatTime(expiresAt), formatTime(c.timestamp()))
		return err
	})
}

// RevokeRefreshTokens revokes every refresh token of userID.
func (c *Core) RevokeRefreshTokens(ctx context.Context, userID string) error {
	_, err := c.exec(ctx, c.db, "UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0", userID)
	return err
}
