package birthdays

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// isoDate - формат хранения даты в SQLite (ISO-8601).
const isoDate = "2006-01-02"

// SQLiteRepository хранит записи во встроенной базе SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository создаёт репозиторий поверх открытой базы.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, b *Birthday) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO birthdays (last_name, first_name, middle_name, birth_date, chat_id) VALUES (?, ?, ?, ?, ?)`,
		b.LastName, b.FirstName, b.MiddleName, b.BirthDate.Format(isoDate), b.ChatID,
	)
	if err != nil {
		return fmt.Errorf("ошибка добавления дня рождения: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("ошибка получения id: %w", err)
	}
	b.ID = id
	return nil
}

// DeleteByKey: в SQLite "IS" сравнивает с учётом NULL.
func (r *SQLiteRepository) DeleteByKey(ctx context.Context, key Key) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM birthdays WHERE chat_id = ? AND last_name = ? AND first_name = ? AND middle_name IS ?`,
		key.ChatID, key.LastName, key.FirstName, key.MiddleName,
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления дня рождения: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта удалённых строк: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) FindByMonthDay(ctx context.Context, md MonthDay, chatID *int64) ([]*Birthday, error) {
	if chatID == nil {
		return r.queryBirthdays(ctx,
			`SELECT id, last_name, first_name, middle_name, birth_date, chat_id FROM birthdays
			 WHERE strftime('%m-%d', birth_date) = ? ORDER BY chat_id, id`,
			md.String())
	}
	return r.queryBirthdays(ctx,
		`SELECT id, last_name, first_name, middle_name, birth_date, chat_id FROM birthdays
		 WHERE chat_id = ? AND strftime('%m-%d', birth_date) = ? ORDER BY id`,
		*chatID, md.String())
}

func (r *SQLiteRepository) FindAllForChat(ctx context.Context, chatID int64) ([]*Birthday, error) {
	return r.queryBirthdays(ctx,
		`SELECT id, last_name, first_name, middle_name, birth_date, chat_id FROM birthdays
		 WHERE chat_id = ? ORDER BY strftime('%m-%d', birth_date), id`,
		chatID)
}

func (r *SQLiteRepository) ListChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT chat_id FROM birthdays ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения чатов: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) queryBirthdays(ctx context.Context, query string, args ...any) ([]*Birthday, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса дней рождения: %w", err)
	}
	defer rows.Close()

	var out []*Birthday
	for rows.Next() {
		var (
			b      Birthday
			middle sql.NullString
			date   string
		)
		if err := rows.Scan(&b.ID, &b.LastName, &b.FirstName, &middle, &date, &b.ChatID); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		if middle.Valid {
			m := middle.String
			b.MiddleName = &m
		}
		b.BirthDate, err = time.Parse(isoDate, date)
		if err != nil {
			return nil, fmt.Errorf("некорректная дата %q в базе: %w", date, err)
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
