// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"

	"codecrew/internal/database"
	"codecrew/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// NewSQLiteDB opens a migrated in-memory database private to t.
// The pool is pinned to one connection so every query sees the same memory DB.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&_foreign_keys=on", gofakeit.UUID())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with TestPassword and the given roles.
func CreateUser(t testing.TB, db *gorm.DB, name string, roles ...models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := string(hash)

	if len(roles) == 0 {
		roles = []models.Role{models.RoleUser}
	}
	u := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s.%s@example.com", name, gofakeit.LetterN(6)),
		PasswordHash: &hashed,
		Roles:        datatypes.JSONSlice[models.Role](roles),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateProblem inserts a problem owned by ownerID.
func CreateProblem(t testing.TB, db *gorm.DB, ownerID uint, mutate ...func(p *models.Problem)) *models.Problem {
	t.Helper()

	p := &models.Problem{
		Title:               gofakeit.Sentence(6),
		DescriptionMarkdown: gofakeit.Paragraph(1, 3, 12, " "),
		CreatedByID:         ownerID,
		Severity:            models.SeverityMedium,
		Difficulty:          models.DifficultyBeginner,
		Tags:                datatypes.JSONSlice[string]{"go"},
		Resources:           datatypes.JSONSlice[models.Resource]{},
	}
	for _, m := range mutate {
		m(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateAnswer inserts an answer on problemID.
func CreateAnswer(t testing.TB, db *gorm.DB, problemID, authorID uint) *models.Answer {
	t.Helper()

	a := &models.Answer{
		ProblemID:       problemID,
		CreatedByID:     authorID,
		ContentMarkdown: gofakeit.Paragraph(1, 2, 10, " "),
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// CreateComment inserts a comment on the given parent.
func CreateComment(t testing.TB, db *gorm.DB, parentType models.TargetType, parentID, authorID uint) *models.Comment {
	t.Helper()

	c := &models.Comment{
		ParentType:  parentType,
		ParentID:    parentID,
		CreatedByID: authorID,
		Content:     gofakeit.Sentence(8),
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// Reload re-reads a row by primary key.
func Reload[T any](t testing.TB, db *gorm.DB, id uint) *T {
	t.Helper()
	var out T
	require.NoError(t, db.First(&out, id).Error)
	return &out
}

// Count returns the number of rows of model matching the optional where clause.
func Count(t testing.TB, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
