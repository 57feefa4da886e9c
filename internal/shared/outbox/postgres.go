package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"time"

	"eduweb/internal/platform/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore reads and writes one service's outbox table, for example
// enrollment_outbox. Writes join the transaction carried by ctx.
type PostgresStore struct {
	db     *gorm.DB
	table  string
	logger *slog.Logger
}

func NewPostgresStore(gdb *gorm.DB, table string, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: gdb, table: table, logger: logger}
}

func (s *PostgresStore) AppendOutbox(ctx context.Context, msg Message) error {
	row := toRow(msg)
	create := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return s.logError("outbox_append_failed", create.Error, "outbox_id", msg.ID)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxRow
	if err := s.conn(ctx).Select("payload").Where("outbox_id = ?", msg.ID).First(&existing).Error; err != nil {
		return s.logError("outbox_append_load_existing_failed", err, "outbox_id", msg.ID)
	}
	if !sameJSON(existing.Payload, row.Payload) {
		return ErrConflict
	}
	return nil
}

// jsonb normalizes key order and whitespace, so compare decoded values.
func sameJSON(a []byte, b []byte) bool {
	var left, right any
	if json.Unmarshal(a, &left) != nil || json.Unmarshal(b, &right) != nil {
		return false
	}
	return reflect.DeepEqual(left, right)
}

func (s *PostgresStore) ListDueOutbox(ctx context.Context, now time.Time, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxRow
	if err := s.conn(ctx).
		Where("status = ? AND next_attempt_at <= ?", StatusPending, now.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, s.logError("outbox_list_due_failed", err, "limit", limit)
	}
	items := make([]Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toMessage())
	}
	return items, nil
}

func (s *PostgresStore) MarkOutboxSent(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, "outbox_mark_sent_failed", id, map[string]any{
		"status":  StatusSent,
		"sent_at": at.UTC(),
	})
}

func (s *PostgresStore) MarkOutboxRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	return s.update(ctx, "outbox_mark_retry_failed", id, map[string]any{
		"attempts":        attempts,
		"next_attempt_at": next.UTC(),
		"last_error":      lastErr,
	})
}

func (s *PostgresStore) MarkOutboxFailed(ctx context.Context, id string, attempts int, lastErr string) error {
	return s.update(ctx, "outbox_mark_failed_failed", id, map[string]any{
		"status":     StatusFailed,
		"attempts":   attempts,
		"last_error": lastErr,
	})
}

func (s *PostgresStore) update(ctx context.Context, event string, id string, values map[string]any) error {
	result := s.conn(ctx).Where("outbox_id = ?", id).Updates(values)
	if result.Error != nil {
		return s.logError(event, result.Error, "outbox_id", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) conn(ctx context.Context) *gorm.DB {
	return db.Conn(ctx, s.db).Table(s.table)
}

func (s *PostgresStore) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "internal/shared/outbox",
		"layer", "adapter",
		"table", s.table,
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("outbox repository operation failed", fields...)
	return err
}

type outboxRow struct {
	OutboxID      string     `gorm:"column:outbox_id;primaryKey"`
	EventType     string     `gorm:"column:event_type"`
	PartitionKey  string     `gorm:"column:partition_key"`
	Payload       []byte     `gorm:"column:payload;type:jsonb"`
	Status        string     `gorm:"column:status"`
	Attempts      int        `gorm:"column:attempts"`
	NextAttemptAt time.Time  `gorm:"column:next_attempt_at"`
	LastError     string     `gorm:"column:last_error"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	SentAt        *time.Time `gorm:"column:sent_at"`
}

func toRow(msg Message) outboxRow {
	return outboxRow{
		OutboxID:      msg.ID,
		EventType:     msg.EventType,
		PartitionKey:  msg.PartitionKey,
		Payload:       msg.Payload,
		Status:        msg.Status,
		Attempts:      msg.Attempts,
		NextAttemptAt: msg.NextAttemptAt.UTC(),
		LastError:     msg.LastError,
		CreatedAt:     msg.CreatedAt.UTC(),
		SentAt:        msg.SentAt,
	}
}

func (r outboxRow) toMessage() Message {
	return Message{
		ID:            r.OutboxID,
		EventType:     r.EventType,
		PartitionKey:  r.PartitionKey,
		Payload:       append([]byte(nil), r.Payload...),
		Status:        r.Status,
		Attempts:      r.Attempts,
		NextAttemptAt: r.NextAttemptAt.UTC(),
		LastError:     r.LastError,
		CreatedAt:     r.CreatedAt.UTC(),
		SentAt:        r.SentAt,
	}
}
