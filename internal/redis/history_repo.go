package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/edirooss/zrec-server/internal/service"
)

// HistoryKey is the Redis list holding finished sessions, newest first.
const HistoryKey = "zrec:history"

// HistoryRepository stores service.Record values as JSON in a capped list.
//
//	LPUSH zrec:history <json>   (newest at index 0)
//	LTRIM zrec:history 0 limit-1
type HistoryRepository struct {
	client *Client
	log    *zap.Logger
	key    string
	limit  int
}

var _ service.HistoryStore = (*HistoryRepository)(nil)

// NewHistoryRepository returns a repository capped at limit records
// (service.DefaultHistoryLimit if limit <= 0).
func NewHistoryRepository(log *zap.Logger, client *Client, limit int) *HistoryRepository {
	if limit <= 0 {
		limit = service.DefaultHistoryLimit
	}
	return &HistoryRepository{
		client: client,
		log:    log.Named("history"),
		key:    HistoryKey,
		limit:  limit,
	}
}

// Append pushes rec and trims the list in one MULTI/EXEC.
func (r *HistoryRepository) Append(ctx context.Context, rec service.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, raw)
	pipe.LTrim(ctx, r.key, 0, int64(r.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// List returns up to limit records, newest first. Undecodable entries are
// logged and skipped.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]service.Record, error) {
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}

	vals, err := r.client.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange history: %w", err)
	}
	return decodeRecords(r.log, vals), nil
}

func decodeRecords(log *zap.Logger, vals []string) []service.Record {
	out := make([]service.Record, 0, len(vals))
	for _, v := range vals {
		var rec service.Record
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			log.Warn("bad history json", zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out
}
