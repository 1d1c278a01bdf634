package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"smartsave/internal/core"
)

const userColumns = "id, email, password, name, whatsapp_number, created_at"

// CreateUser stores u. A duplicate email yields core.ErrAlreadyExists.
func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	created := r.timestamp()
	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		u.ID, u.Email, u.PasswordHash, nullable(u.Name), nullable(u.WhatsAppNumber), created)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrAlreadyExists
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	slog.InfoContext(ctx, "User created", "user_id", u.ID)
	return u, nil
}

// GetUserByEmail looks a user up by (case-insensitive) email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`),
		strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// GetUser looks a user up by id.
func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return scanUser(row)
}

// UpdateWhatsAppNumber sets or clears the user's WhatsApp number.
func (r *Repository) UpdateWhatsAppNumber(ctx context.Context, userID, number string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`UPDATE users SET whatsapp_number = ? WHERE id = ?`), nullable(number), userID)
	if err != nil {
		return fmt.Errorf("update whatsapp number: %w", err)
	}
	return expectRow(res)
}

func scanUser(row *sql.Row) (core.User, error) {
	var (
		u              core.User
		name, whatsapp sql.NullString
		created        string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &whatsapp, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Name = name.String
	u.WhatsAppNumber = whatsapp.String
	u.CreatedAt = parseTime(created)
	return u, nil
}

// expectRow maps an update or delete that touched nothing to core.ErrNotFound.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
