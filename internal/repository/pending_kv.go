package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pot-code/learn-progress/internal/domain"
	"github.com/pot-code/learn-progress/internal/infrastructure/driver"
	"github.com/pot-code/learn-progress/internal/infrastructure/logging"
	"go.uber.org/zap"
)

var errMissingEntryID = errors.New("pending update has no id")

// PendingKV pending-write queue stored as a list under domain.PendingProgressKey
type PendingKV struct {
	KV  driver.KeyValueDB
	Key string
}

var _ domain.PendingStore = &PendingKV{}

// NewPendingKV create a PendingKV
func NewPendingKV(KV driver.KeyValueDB) *PendingKV {
	return &PendingKV{KV: KV, Key: domain.PendingProgressKey}
}

// Append push one entry to the tail of the queue
func (repo *PendingKV) Append(ctx context.Context, update *domain.PendingProgressUpdate) error {
	if update.ID == "" {
		return errMissingEntryID
	}
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return repo.KV.Push(ctx, repo.Key, string(data))
}

// ReadAll snapshot of the queue in insertion order. Values that do not decode
// can never be replayed, they are removed from the queue and logged as dropped.
func (repo *PendingKV) ReadAll(ctx context.Context) ([]*domain.PendingProgressUpdate, error) {
	values, err := repo.KV.Range(ctx, repo.Key)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.PendingProgressUpdate, 0, len(values))
	var corrupted []string
	for _, v := range values {
		item := new(domain.PendingProgressUpdate)
		if err := json.Unmarshal([]byte(v), item); err != nil {
			corrupted = append(corrupted, v)
			continue
		}
		result = append(result, item)
	}
	if len(corrupted) > 0 {
		if err := repo.KV.RemoveValues(ctx, repo.Key, corrupted...); err != nil {
			return nil, fmt.Errorf("failed to drop %d corrupted pending updates: %w", len(corrupted), err)
		}
		logger := logging.ExtractLoggerFromContext(ctx)
		for _, v := range corrupted {
			logger.Warn("dropped corrupted pending update", zap.String("pending.key", repo.Key), zap.String("pending.value", v))
		}
	}
	return result, nil
}

// CompareAndClear remove the stored values whose entry id is in updates
func (repo *PendingKV) CompareAndClear(ctx context.Context, updates []*domain.PendingProgressUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	ids := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		ids[u.ID] = struct{}{}
	}

	values, err := repo.KV.Range(ctx, repo.Key)
	if err != nil {
		return err
	}
	var matched []string
	for _, v := range values {
		item := new(domain.PendingProgressUpdate)
		if err := json.Unmarshal([]byte(v), item); err != nil {
			continue
		}
		if _, ok := ids[item.ID]; ok {
			matched = append(matched, v)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	if err := repo.KV.RemoveValues(ctx, repo.Key, matched...); err != nil {
		return fmt.Errorf("failed to clear %d pending updates: %w", len(matched), err)
	}
	return nil
}

// Count number of queued entries
func (repo *PendingKV) Count(ctx context.Context) (int, error) {
	n, err := repo.KV.Len(ctx, repo.Key)
	return int(n), err
}

// Ping check the underlying storage
func (repo *PendingKV) Ping() error {
	return repo.KV.Ping()
}
