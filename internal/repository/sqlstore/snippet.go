package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/repository"
)

var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, user_id, title, code, language, description, tags, created_at, updated_at`

var snippetSearchColumns = []string{"title", "code", "tags", "language"}

func (db *DB) CreateSnippet(ctx context.Context, snippet *model.Snippet) error {
	ts := now()
	snippet.CreatedAt = ts
	snippet.UpdatedAt = ts

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Storage("sqlstore: creating snippet", err)
	}
	defer db.rollback(tx)

	id, err := db.insert(ctx, tx,
		`INSERT INTO snippets (user_id, title, code, language, description, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.UserID, snippet.Title, snippet.Code, snippet.Language, snippet.Description,
		snippet.Tags, snippet.CreatedAt, snippet.UpdatedAt,
	)
	if err != nil {
		return apperror.Storage("sqlstore: creating snippet", err)
	}

	var stored model.Snippet
	err = tx.GetContext(ctx, &stored,
		tx.Rebind(`SELECT `+snippetColumns+` FROM snippets WHERE id = ? AND user_id = ?`), id, snippet.UserID)
	if err != nil {
		return apperror.Storage("sqlstore: reading created snippet", err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.Storage("sqlstore: committing snippet", err)
	}

	*snippet = stored
	return nil
}

func (db *DB) GetSnippet(ctx context.Context, userID, id int64) (*model.Snippet, error) {
	var snippet model.Snippet
	err := db.conn.GetContext(ctx, &snippet,
		db.conn.Rebind(`SELECT `+snippetColumns+` FROM snippets WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, apperror.Storage("sqlstore: getting snippet", err)
	}
	return &snippet, nil
}

func (db *DB) ListSnippets(ctx context.Context, userID int64) ([]model.Snippet, error) {
	return db.selectSnippets(ctx, "sqlstore: listing snippets", `user_id = ?`, userID)
}

func (db *DB) UpdateSnippet(ctx context.Context, userID, id int64, patch model.SnippetPatch) (*model.Snippet, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperror.Storage("sqlstore: updating snippet", err)
	}
	defer db.rollback(tx)

	var snippet model.Snippet
	err = tx.GetContext(ctx, &snippet,
		tx.Rebind(`SELECT `+snippetColumns+` FROM snippets WHERE id = ? AND user_id = ?`+db.dialect.lockClause()),
		id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, apperror.Storage("sqlstore: loading snippet for update", err)
	}

	patch.Apply(&snippet)
	snippet.UpdatedAt = now()

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`UPDATE snippets
		 SET title = ?, code = ?, language = ?, description = ?, tags = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`),
		snippet.Title, snippet.Code, snippet.Language, snippet.Description, snippet.Tags,
		snippet.UpdatedAt, id, userID,
	)
	if err != nil {
		return nil, apperror.Storage("sqlstore: updating snippet", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Storage("sqlstore: committing snippet update", err)
	}

	return &snippet, nil
}

func (db *DB) DeleteSnippet(ctx context.Context, userID, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		db.conn.Rebind(`DELETE FROM snippets WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return apperror.Storage("sqlstore: deleting snippet", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Storage("sqlstore: checking rows affected", err)
	}
	if rows == 0 {
		return apperror.NotFound("snippet", id)
	}
	return nil
}

func (db *DB) SearchSnippets(ctx context.Context, userID int64, query string) ([]model.Snippet, error) {
	clause, args := containsAny(query, snippetSearchColumns...)
	return db.selectSnippets(ctx, "sqlstore: searching snippets",
		`user_id = ? AND `+clause, append([]any{userID}, args...)...)
}

func (db *DB) FilterSnippets(ctx context.Context, userID int64, field repository.Field, value string) ([]model.Snippet, error) {
	col, ok := filterColumn(field, repository.FieldTitle, repository.FieldTags, repository.FieldLanguage)
	if !ok {
		return nil, apperror.ValidationFailed(string(field), "snippets cannot be filtered by "+string(field))
	}

	clause, args := containsAny(value, col)
	return db.selectSnippets(ctx, "sqlstore: filtering snippets",
		`user_id = ? AND `+clause, append([]any{userID}, args...)...)
}

func (db *DB) selectSnippets(ctx context.Context, op, where string, args ...any) ([]model.Snippet, error) {
	snippets := []model.Snippet{}
	err := db.conn.SelectContext(ctx, &snippets,
		db.conn.Rebind(`SELECT `+snippetColumns+` FROM snippets WHERE `+where+` ORDER BY id`), args...)
	if err != nil {
		return nil, apperror.Storage(op, err)
	}
	return snippets, nil
}
