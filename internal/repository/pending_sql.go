package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/driver"
	"github.com/pot-code/learn-progress/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// PendingSQL pending-write queue stored in the pending_progress table
type PendingSQL struct {
	Conn driver.ITransactionalDB `dep:""`
}

var _ domain.PendingStore = &PendingSQL{}

// NewPendingSQL create a PendingSQL
func NewPendingSQL(Conn driver.ITransactionalDB) *PendingSQL {
	return &PendingSQL{
		Conn: Conn,
	}
}

// EnsureSchema create the pending_progress table if missing
func (repo *PendingSQL) EnsureSchema(ctx context.Context) error {
	_, err := repo.Conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS pending_progress (
    id VARCHAR(64) PRIMARY KEY,
    lesson_id VARCHAR(64) NOT NULL,
    course_id VARCHAR(64) NOT NULL,
    enrollment_id VARCHAR(64) NOT NULL,
    payload TEXT NOT NULL,
    created_at BIGINT NOT NULL
)`)
	return err
}

// Append insert one entry
func (repo *PendingSQL) Append(ctx context.Context, update *domain.PendingProgressUpdate) error {
	if update.ID == "" {
		return errMissingEntryID
	}
	payload, err := json.Marshal(&update.Delta)
	if err != nil {
		return err
	}
	_, err = repo.Conn.ExecContext(ctx, `
INSERT INTO pending_progress(id, lesson_id, course_id, enrollment_id, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
	`, update.ID, update.LessonID, update.CourseID, update.EnrollmentID, string(payload), update.CreatedAt)
	return err
}

// ReadAll snapshot of the queue ordered by creation time. Rows whose payload
// does not decode are deleted in the same transaction and logged as dropped.
func (repo *PendingSQL) ReadAll(ctx context.Context) (result []*domain.PendingProgressUpdate, err error) {
	err = repo.withTx(ctx, func(tx driver.ITransactionalDB) error {
		var corrupted []string
		result, corrupted, err = repo.scanPending(ctx, tx)
		if err != nil || len(corrupted) == 0 {
			return err
		}
		if _, err := tx.ExecContext(ctx, deleteByIDs(len(corrupted)), stringArgs(corrupted)...); err != nil {
			return fmt.Errorf("failed to drop %d corrupted pending updates: %w", len(corrupted), err)
		}
		logger := logging.ExtractLoggerFromContext(ctx)
		for _, id := range corrupted {
			logger.Warn("dropped corrupted pending update", zap.String("pending.id", id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (repo *PendingSQL) scanPending(ctx context.Context, tx driver.ITransactionalDB) (result []*domain.PendingProgressUpdate, corrupted []string, err error) {
	rows, err := tx.QueryContext(ctx, `
SELECT
    id, lesson_id, course_id, enrollment_id, payload, created_at
FROM
    pending_progress
ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		item := new(domain.PendingProgressUpdate)
		if err := rows.Scan(&item.ID, &item.LessonID, &item.CourseID, &item.EnrollmentID, &payload, &item.CreatedAt); err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal([]byte(payload), &item.Delta); err != nil {
			corrupted = append(corrupted, item.ID)
			continue
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return result, corrupted, nil
}

// CompareAndClear delete exactly the given entries in one transaction
func (repo *PendingSQL) CompareAndClear(ctx context.Context, updates []*domain.PendingProgressUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	ids := make([]string, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
	}
	return repo.withTx(ctx, func(tx driver.ITransactionalDB) error {
		res, err := tx.ExecContext(ctx, deleteByIDs(len(ids)), stringArgs(ids)...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > int64(len(ids)) {
			return fmt.Errorf("clearing %d pending updates deleted %d rows", len(ids), n)
		}
		if n < int64(len(ids)) {
			logging.ExtractLoggerFromContext(ctx).Debug("some pending updates were already cleared",
				zap.Int("pending.expected", len(ids)), zap.Int64("pending.deleted", n))
		}
		return nil
	})
}

// Count number of queued entries
func (repo *PendingSQL) Count(ctx context.Context) (int, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT COUNT(*) FROM pending_progress`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

// withTx run fn in a read-write transaction, fn's error rolls it back
func (repo *PendingSQL) withTx(ctx context.Context, fn func(tx driver.ITransactionalDB) error) error {
	tx, err := repo.Conn.BeginTx(ctx, &driver.TxOptions{
		Isolation:      sql.LevelReadCommitted,
		AccessMode:     driver.AccessReadWrite,
		DeferrableMode: driver.NotDeferrable,
	})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func deleteByIDs(n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return "DELETE FROM pending_progress WHERE id IN (" + strings.Join(placeholders, ", ") + ")"
}

func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// Ping check the underlying storage
func (repo *PendingSQL) Ping() error {
	return repo.Conn.Ping()
}
