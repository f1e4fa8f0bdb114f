package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var errNoDatabase = errors.New("no database in dry run")

// txLog is a connection pool that only records transaction boundaries. With
// gorm's DryRun the statements themselves never reach it.
type txLog struct {
	entries []string
}

func (l *txLog) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, errNoDatabase
}

func (l *txLog) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoDatabase
}

func (l *txLog) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoDatabase
}

func (l *txLog) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (l *txLog) BeginTx(ctx context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
	l.entries = append(l.entries, "BEGIN")
	return l, nil
}

func (l *txLog) Commit() error {
	l.entries = append(l.entries, "COMMIT")
	return nil
}

func (l *txLog) Rollback() error {
	l.entries = append(l.entries, "ROLLBACK")
	return nil
}

// newDryRunStore returns a GormStore on the postgres dialect whose generated
// SQL and transaction calls land in the returned log, in order.
func newDryRunStore(t *testing.T) (*GormStore, *txLog) {
	t.Helper()
	pool := &txLog{}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: pool}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	record := func(tx *gorm.DB) {
		if q := tx.Statement.SQL.String(); q != "" {
			pool.entries = append(pool.entries, q)
		}
	}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:record_query", record))
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:record_create", record))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:record_update", record))
	return NewGormStore(db), pool
}

func requireSequence(t *testing.T, entries []string, prefixes ...string) {
	t.Helper()
	require.Len(t, entries, len(prefixes), strings.Join(entries, "\n"))
	for i, p := range prefixes {
		assert.True(t, strings.HasPrefix(entries[i], p), "step %d: %q does not start with %q", i, entries[i], p)
	}
}

func TestGormUpdateProfileInsertsThenLocks(t *testing.T) {
	s, log := newDryRunStore(t)

	profile, err := s.UpdateProfile(context.Background(), "u-1", func(p *models.UserProfile) error {
		p.Points += 10
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 10, profile.Points)

	requireSequence(t, log.entries, "BEGIN", "INSERT INTO", "SELECT", "UPDATE", "COMMIT")
	assert.Contains(t, log.entries[1], `"user_profiles"`)
	assert.Contains(t, log.entries[1], "ON CONFLICT DO NOTHING")
	assert.True(t, strings.HasSuffix(log.entries[2], "FOR UPDATE"), log.entries[2])
	assert.Contains(t, log.entries[2], `"user_id"`)
	assert.Contains(t, log.entries[3], `"user_profiles"`)
}

func TestGormUpdateProfileRollsBackWhenFnFails(t *testing.T) {
	s, log := newDryRunStore(t)
	errRejected := errors.New("rejected")

	_, err := s.UpdateProfile(context.Background(), "u-1", func(p *models.UserProfile) error {
		return errRejected
	})
	assert.ErrorIs(t, err, errRejected)
	requireSequence(t, log.entries, "BEGIN", "INSERT INTO", "SELECT", "ROLLBACK")
}

func TestGormLockedReviewSelectsForUpdate(t *testing.T) {
	s, log := newDryRunStore(t)
	review := &models.Review{ID: "r-1"}

	err := s.lockedReview(context.Background(), "r-1", review, func(tx *gorm.DB) error {
		return tx.Model(review).Update("helpful_count", 1).Error
	})
	require.NoError(t, err)

	requireSequence(t, log.entries, "BEGIN", "SELECT", "UPDATE", "COMMIT")
	assert.Contains(t, log.entries[1], `FROM "reviews"`)
	assert.True(t, strings.HasSuffix(log.entries[1], "FOR UPDATE"), log.entries[1])
	assert.Contains(t, log.entries[2], `"helpful_count"`)
}

func TestGormLockedReviewRollsBackOnError(t *testing.T) {
	s, log := newDryRunStore(t)

	err := s.lockedReview(context.Background(), "r-1", &models.Review{ID: "r-1"}, func(tx *gorm.DB) error {
		return errNoDatabase
	})
	assert.ErrorIs(t, err, errNoDatabase)
	requireSequence(t, log.entries, "BEGIN", "SELECT", "ROLLBACK")
}
