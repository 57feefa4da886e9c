package inbox

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"eduweb/internal/platform/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore writes markers to a <service>_processed_events table.
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

func (s *PostgresStore) ReserveEvent(ctx context.Context, consumer string, eventID string, payloadHash string, at time.Time) (bool, error) {
	row := processedEventRow{
		Consumer:    strings.TrimSpace(consumer),
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ProcessedAt: at.UTC(),
	}
	create := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "consumer"}, {Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, s.logError("inbox_reserve_event_failed", create.Error, "event_id", row.EventID)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing processedEventRow
	if err := s.conn(ctx).
		Select("payload_hash").
		Where("consumer = ? AND event_id = ?", row.Consumer, row.EventID).
		First(&existing).Error; err != nil {
		return false, s.logError("inbox_reserve_event_load_existing_failed", err, "event_id", row.EventID)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, ErrEventIDConflict
	}
	return true, nil
}

func (s *PostgresStore) conn(ctx context.Context) *gorm.DB {
	return db.Conn(ctx, s.db).Table(s.table)
}

func (s *PostgresStore) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "internal/shared/inbox",
		"layer", "adapter",
		"table", s.table,
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("inbox repository operation failed", fields...)
	return err
}

type processedEventRow struct {
	Consumer    string    `gorm:"column:consumer;primaryKey"`
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}
