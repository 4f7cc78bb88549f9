//go:build integration

package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/repository"
)

// PostgresIntegrationSuite runs the store against a real Postgres in a
// container. Run with: go test -tags integration ./internal/repository/sqlstore/
type PostgresIntegrationSuite struct {
	suite.Suite
	ctx context.Context
	pgc *postgres.PostgresContainer
	db  *DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	pgc, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("devlog"),
		postgres.WithUsername("devlog"),
		postgres.WithPassword("devlog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err, "starting postgres container")
	s.pgc = pgc

	dsn, err := pgc.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := New(s.ctx, Postgres, dsn, discardLogger())
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.pgc != nil {
		s.Require().NoError(testcontainers.TerminateContainer(s.pgc))
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, err := s.db.conn.ExecContext(s.ctx, `TRUNCATE users RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *PostgresIntegrationSuite) createUser(name string) *model.User {
	u := &model.User{Email: name + "@example.com", Username: name, PasswordHash: "x"}
	s.Require().NoError(s.db.CreateUser(s.ctx, u))
	return u
}

func (s *PostgresIntegrationSuite) TestEntryLifecycle() {
	user := s.createUser("alice")

	entry := &model.Entry{UserID: user.ID, Title: "T", Content: "C"}
	s.Require().NoError(s.db.CreateEntry(s.ctx, entry))
	s.Positive(entry.ID)

	title := "T2"
	updated, err := s.db.UpdateEntry(s.ctx, user.ID, entry.ID, model.EntryPatch{Title: &title})
	s.Require().NoError(err)
	s.Equal("T2", updated.Title)
	s.Equal("C", updated.Content)

	s.Require().NoError(s.db.DeleteEntry(s.ctx, user.ID, entry.ID))
	_, err = s.db.GetEntry(s.ctx, user.ID, entry.ID)
	s.True(errors.Is(err, apperror.ErrNotFound))
}

func (s *PostgresIntegrationSuite) TestDuplicateUserIsConflict() {
	s.createUser("alice")

	err := s.db.CreateUser(s.ctx, &model.User{Email: "other@example.com", Username: "alice", PasswordHash: "x"})
	s.True(errors.Is(err, apperror.ErrConflict), "error = %v", err)
}

func (s *PostgresIntegrationSuite) TestSearchIsCaseInsensitive() {
	user := s.createUser("alice")
	s.Require().NoError(s.db.CreateSnippet(s.ctx, &model.Snippet{
		UserID: user.ID, Title: "Borrow checker", Code: "fn main() {}", Language: "Rust", Description: "d",
	}))

	found, err := s.db.SearchSnippets(s.ctx, user.ID, "rust")
	s.Require().NoError(err)
	s.Len(found, 1)

	byLang, err := s.db.FilterSnippets(s.ctx, user.ID, repository.FieldLanguage, "RUST")
	s.Require().NoError(err)
	s.Len(byLang, 1)
}

func (s *PostgresIntegrationSuite) TestDeleteUserCascades() {
	user := s.createUser("alice")
	s.Require().NoError(s.db.CreateEntry(s.ctx, &model.Entry{UserID: user.ID, Title: "T", Content: "C"}))

	s.Require().NoError(s.db.DeleteUser(s.ctx, user.ID))

	list, err := s.db.ListEntries(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(list)
}

func TestPostgresIntegration(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}
