// Package reminders - repository.go ведёт журнал отправленных напоминаний,
// чтобы одно и то же напоминание не ушло в чат дважды.
package reminders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"serotonyl.ru/birthday-bot/internal/features/birthdays"
)

// Log - журнал отправок, ключ (chat_id, дата рассылки, смещение в днях).
type Log interface {
	WasSent(ctx context.Context, chatID int64, date time.Time, offset int) (bool, error)
	MarkSent(ctx context.Context, chatID int64, date time.Time, offset int) error
}

// PostgresLog хранит журнал в PostgreSQL.
type PostgresLog struct {
	db birthdays.DB
}

// NewPostgresLog создаёт журнал поверх пула соединений.
func NewPostgresLog(db birthdays.DB) *PostgresLog {
	return &PostgresLog{db: db}
}

func (l *PostgresLog) WasSent(ctx context.Context, chatID int64, date time.Time, offset int) (bool, error) {
	var exists bool
	err := l.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM notification_log
			WHERE chat_id = $1 AND notify_date = $2 AND day_offset = $3
		)
	`, chatID, dateOnly(date), offset).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки журнала уведомлений: %w", err)
	}
	return exists, nil
}

func (l *PostgresLog) MarkSent(ctx context.Context, chatID int64, date time.Time, offset int) error {
	_, err := l.db.Exec(ctx, `
		INSERT INTO notification_log (chat_id, notify_date, day_offset)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, notify_date, day_offset) DO NOTHING
	`, chatID, dateOnly(date), offset)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал уведомлений: %w", err)
	}
	return nil
}

// SQLiteLog хранит журнал во встроенной базе.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLiteLog создаёт журнал поверх открытой базы SQLite.
func NewSQLiteLog(db *sql.DB) *SQLiteLog {
	return &SQLiteLog{db: db}
}

func (l *SQLiteLog) WasSent(ctx context.Context, chatID int64, date time.Time, offset int) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_log WHERE chat_id = ? AND notify_date = ? AND day_offset = ?`,
		chatID, date.Format(isoDate), offset,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки журнала уведомлений: %w", err)
	}
	return n > 0, nil
}

func (l *SQLiteLog) MarkSent(ctx context.Context, chatID int64, date time.Time, offset int) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO notification_log (chat_id, notify_date, day_offset) VALUES (?, ?, ?)`,
		chatID, date.Format(isoDate), offset,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал уведомлений: %w", err)
	}
	return nil
}

const isoDate = "2006-01-02"

// dateOnly переносит календарную дату в UTC, чтобы DATE в PostgreSQL
// не сдвинулся из-за часового пояса.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
