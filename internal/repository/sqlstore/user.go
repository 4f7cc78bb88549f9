package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, username, password_hash, created_at`

// CreateUser inserts user and fills in its id and created_at. A duplicate
// email or username surfaces as a conflict even when two registrations race
// past the service's existence check.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = now()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Storage("sqlstore: creating user", err)
	}
	defer db.rollback(tx)

	id, err := db.insert(ctx, tx,
		`INSERT INTO users (email, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.Email, user.Username, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if db.dialect.isUniqueViolation(err) {
			return apperror.Conflict("User with this email or username already exists")
		}
		return apperror.Storage("sqlstore: creating user", err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.Storage("sqlstore: committing user", err)
	}

	user.ID = id
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx, "id", id, fmt.Sprint(id))
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username", username, username)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, "email", email, email)
}

func (db *DB) getUser(ctx context.Context, column string, value any, label string) (*model.User, error) {
	var user model.User
	err := db.conn.GetContext(ctx, &user,
		db.conn.Rebind(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("User not found with %s %s", column, label),
			}
		}
		return nil, apperror.Storage("sqlstore: getting user", err)
	}
	return &user, nil
}

func (db *DB) UserExists(ctx context.Context, email, username string) (bool, error) {
	var count int
	err := db.conn.GetContext(ctx, &count,
		db.conn.Rebind(`SELECT COUNT(*) FROM users WHERE email = ? OR username = ?`), email, username)
	if err != nil {
		return false, apperror.Storage("sqlstore: checking user", err)
	}
	return count > 0, nil
}

// DeleteUser relies on ON DELETE CASCADE to remove entries and snippets.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, db.conn.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return apperror.Storage("sqlstore: deleting user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage("sqlstore: checking rows affected", err)
	}
	if rows == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
