package folio

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

const userColumns = "id, email, password_hash, first_name, last_name, created_at, updated_at"

func scanUser(row rowScanner) (*User, error) {
	var u User
	var createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser stores a new account. The password must already be hashed.
// An email that is already registered yields ErrCodeDuplicate.
func (c *Core) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, validationError("Email is required")
	}
	if passwordHash == "" {
		return nil, validationError("Password hash is required")
	}
	now := c.timestamp()
	u := &User{
		ID:           newID(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		var existing string
		err := c.queryRow(ctx, tx, "SELECT id FROM users WHERE email = ?", email).Scan(&existing)
		if err == nil {
			return NewError(ErrCodeDuplicate, "User with this email already exists")
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return dbError("failed to check email", err)
		}
		_, err = c.exec(ctx, tx, `
			INSERT INTO users (id, email, password_hash, first_name, last_name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, formatTime(now), formatTime(now))
		return err
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("user registered", "user_id", u.ID)
	return u, nil
}

// GetUserByEmail looks up an account by its (case-insensitive) email.
func (c *Core) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := c.queryRow(ctx, c.db, "SELECT "+userColumns+" FROM users WHERE email = ?", normalizeEmail(email))
	return userFromRow(row)
}

// GetUser looks up an account by id.
func (c *Core) GetUser(ctx context.Context, id string) (*User, error) {
	row := c.queryRow(ctx, c.db, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return userFromRow(row)
}

func userFromRow(row *sql.Row) (*User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("User")
	}
	if err != nil {
		return nil, dbError("failed to load user", err)
	}
	return u, nil
}
