package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/repository"
)

var _ repository.EntryRepository = (*DB)(nil)

const entryColumns = `id, user_id, title, content, tags, created_at, updated_at`

// entrySearchColumns are the fields a free-text search looks at.
var entrySearchColumns = []string{"title", "content", "tags"}

// CreateEntry inserts entry and reads the stored row back in the same
// transaction, so the caller gets exactly what was persisted.
func (db *DB) CreateEntry(ctx context.Context, entry *model.Entry) error {
	ts := now()
	entry.CreatedAt = ts
	entry.UpdatedAt = ts

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Storage("sqlstore: creating entry", err)
	}
	defer db.rollback(tx)

	id, err := db.insert(ctx, tx,
		`INSERT INTO entries (user_id, title, content, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.Title, entry.Content, entry.Tags, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return apperror.Storage("sqlstore: creating entry", err)
	}

	var stored model.Entry
	err = tx.GetContext(ctx, &stored,
		tx.Rebind(`SELECT `+entryColumns+` FROM entries WHERE id = ? AND user_id = ?`), id, entry.UserID)
	if err != nil {
		return apperror.Storage("sqlstore: reading created entry", err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.Storage("sqlstore: committing entry", err)
	}

	*entry = stored
	return nil
}

func (db *DB) GetEntry(ctx context.Context, userID, id int64) (*model.Entry, error) {
	var entry model.Entry
	err := db.conn.GetContext(ctx, &entry,
		db.conn.Rebind(`SELECT `+entryColumns+` FROM entries WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("entry", id)
		}
		return nil, apperror.Storage("sqlstore: getting entry", err)
	}
	return &entry, nil
}

func (db *DB) ListEntries(ctx context.Context, userID int64) ([]model.Entry, error) {
	return db.selectEntries(ctx, "sqlstore: listing entries", `user_id = ?`, userID)
}

// UpdateEntry applies patch in a single read-modify-write transaction. The
// row is locked where the dialect supports it.
func (db *DB) UpdateEntry(ctx context.Context, userID, id int64, patch model.EntryPatch) (*model.Entry, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperror.Storage("sqlstore: updating entry", err)
	}
	defer db.rollback(tx)

	var entry model.Entry
	err = tx.GetContext(ctx, &entry,
		tx.Rebind(`SELECT `+entryColumns+` FROM entries WHERE id = ? AND user_id = ?`+db.dialect.lockClause()),
		id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("entry", id)
		}
		return nil, apperror.Storage("sqlstore: loading entry for update", err)
	}

	patch.Apply(&entry)
	entry.UpdatedAt = now()

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`UPDATE entries SET title = ?, content = ?, tags = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		entry.Title, entry.Content, entry.Tags, entry.UpdatedAt, id, userID,
	)
	if err != nil {
		return nil, apperror.Storage("sqlstore: updating entry", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Storage("sqlstore: committing entry update", err)
	}

	return &entry, nil
}

func (db *DB) DeleteEntry(ctx context.Context, userID, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		db.conn.Rebind(`DELETE FROM entries WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return apperror.Storage("sqlstore: deleting entry", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage("sqlstore: checking rows affected", err)
	}
	if rows == 0 {
		return apperror.NotFound("entry", id)
	}
	return nil
}

func (db *DB) SearchEntries(ctx context.Context, userID int64, query string) ([]model.Entry, error) {
	clause, args := containsAny(query, entrySearchColumns...)
	return db.selectEntries(ctx, "sqlstore: searching entries",
		`user_id = ? AND `+clause, append([]any{userID}, args...)...)
}

func (db *DB) FilterEntries(ctx context.Context, userID int64, field repository.Field, value string) ([]model.Entry, error) {
	col, ok := filterColumn(field, repository.FieldTitle, repository.FieldTags)
	if !ok {
		return nil, apperror.ValidationFailed(string(field), "entries cannot be filtered by "+string(field))
	}

	clause, args := containsAny(value, col)
	return db.selectEntries(ctx, "sqlstore: filtering entries",
		`user_id = ? AND `+clause, append([]any{userID}, args...)...)
}

func (db *DB) selectEntries(ctx context.Context, op, where string, args ...any) ([]model.Entry, error) {
	entries := []model.Entry{}
	err := db.conn.SelectContext(ctx, &entries,
		db.conn.Rebind(`SELECT `+entryColumns+` FROM entries WHERE `+where+` ORDER BY id`), args...)
	if err != nil {
		return nil, apperror.Storage(op, err)
	}
	return entries, nil
}
