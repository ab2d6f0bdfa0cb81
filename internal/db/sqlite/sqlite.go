// Package sqlite открывает встроенное хранилище SQLite (modernc.org/sqlite, без cgo).
// Используется для однобинарного деплоя без PostgreSQL и в тестах.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS birthdays (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    last_name TEXT NOT NULL,
    first_name TEXT NOT NULL,
    middle_name TEXT,
    birth_date TEXT NOT NULL,
    chat_id INTEGER NOT NULL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_birthdays_chat_id ON birthdays(chat_id);

CREATE TABLE IF NOT EXISTS notification_log (
    chat_id INTEGER NOT NULL,
    notify_date TEXT NOT NULL,
    day_offset INTEGER NOT NULL,
    sent_at TEXT DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (chat_id, notify_date, day_offset)
);
`

// Open открывает (или создаёт) базу по пути path и применяет схему.
// Путь ":memory:" даёт базу в памяти.
//
// Пул ограничен одним соединением: SQLite всё равно сериализует запись,
// а база в памяти живёт только внутри одного соединения.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог базы: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия SQLite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("база SQLite недоступна: %w", err)
	}

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("ошибка %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка применения схемы SQLite: %w", err)
	}

	log.WithField("path", path).Info("Хранилище SQLite открыто")
	return db, nil
}
