// Package birthdays - repository.go выполняет операции с таблицей birthdays в PostgreSQL.
package birthdays

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store - контракт хранилища записей о днях рождения.
// Реализации: PostgresRepository и SQLiteRepository.
type Store interface {
	// Insert сохраняет запись и заполняет её ID.
	Insert(ctx context.Context, b *Birthday) error
	// DeleteByKey удаляет все записи с этим ключом и возвращает их количество.
	DeleteByKey(ctx context.Context, key Key) (int64, error)
	// FindByMonthDay ищет записи с совпадающими месяцем и днём (год не важен).
	// chatID == nil - по всем чатам.
	FindByMonthDay(ctx context.Context, md MonthDay, chatID *int64) ([]*Birthday, error)
	// FindAllForChat возвращает все записи чата по порядку месяц-день.
	FindAllForChat(ctx context.Context, chatID int64) ([]*Birthday, error)
	// ListChatIDs возвращает все различные чаты, у которых есть записи.
	ListChatIDs(ctx context.Context) ([]int64, error)
}

// DB - подмножество методов pgxpool.Pool, которое нужно репозиторию.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository хранит записи в PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository создаёт репозиторий поверх пула соединений.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectBirthdays = `
		SELECT id, last_name, first_name, middle_name, birth_date, chat_id
		FROM birthdays
`

func (r *PostgresRepository) Insert(ctx context.Context, b *Birthday) error {
	query := `
		INSERT INTO birthdays (last_name, first_name, middle_name, birth_date, chat_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, b.LastName, b.FirstName, b.MiddleName, b.BirthDate, b.ChatID).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("ошибка добавления дня рождения: %w", err)
	}
	return nil
}

// DeleteByKey сравнивает отчество через IS NOT DISTINCT FROM:
// NULL совпадает только с NULL, но не с пустой строкой.
func (r *PostgresRepository) DeleteByKey(ctx context.Context, key Key) (int64, error) {
	query := `
		DELETE FROM birthdays
		WHERE chat_id = $1 AND last_name = $2 AND first_name = $3
		  AND middle_name IS NOT DISTINCT FROM $4
	`
	tag, err := r.db.Exec(ctx, query, key.ChatID, key.LastName, key.FirstName, key.MiddleName)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления дня рождения: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) FindByMonthDay(ctx context.Context, md MonthDay, chatID *int64) ([]*Birthday, error) {
	if chatID == nil {
		query := selectBirthdays + `
		WHERE to_char(birth_date, 'MM-DD') = $1
		ORDER BY chat_id, id
	`
		return r.queryBirthdays(ctx, query, md.String())
	}
	query := selectBirthdays + `
		WHERE chat_id = $1 AND to_char(birth_date, 'MM-DD') = $2
		ORDER BY id
	`
	return r.queryBirthdays(ctx, query, *chatID, md.String())
}

func (r *PostgresRepository) FindAllForChat(ctx context.Context, chatID int64) ([]*Birthday, error) {
	query := selectBirthdays + `
		WHERE chat_id = $1
		ORDER BY to_char(birth_date, 'MM-DD'), id
	`
	return r.queryBirthdays(ctx, query, chatID)
}

func (r *PostgresRepository) ListChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT chat_id FROM birthdays ORDER BY chat_id`)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) queryBirthdays(ctx context.Context, query string, args ...any) ([]*Birthday, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса дней рождения: %w", err)
	}
	defer rows.Close()

	var out []*Birthday
	for rows.Next() {
		var b Birthday
		if err := rows.Scan(&b.ID, &b.LastName, &b.FirstName, &b.MiddleName, &b.BirthDate, &b.ChatID); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
