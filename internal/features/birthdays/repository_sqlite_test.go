package birthdays

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/birthday-bot/internal/db/sqlite"
)

func newSQLiteStore(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db)
}

func ymd(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSQLiteRepository_InsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteStore(t)

	require.NoError(t, repo.Insert(ctx, &Birthday{LastName: "Сидоров", FirstName: "Сидор", BirthDate: ymd(1970, time.December, 1), ChatID: 1}))
	require.NoError(t, repo.Insert(ctx, &Birthday{LastName: "Иванов", FirstName: "Иван", MiddleName: strPtr("Иванович"), BirthDate: ymd(1990, time.August, 15), ChatID: 1}))
	require.NoError(t, repo.Insert(ctx, &Birthday{LastName: "Петров", FirstName: "Пётр", BirthDate: ymd(2001, time.August, 2), ChatID: 1}))
	require.NoError(t, repo.Insert(ctx, &Birthday{LastName: "Чужой", FirstName: "Чат", BirthDate: ymd(2001, time.January, 2), ChatID: 2}))

	got, err := repo.FindAllForChat(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Петров Пётр", got[0].FullName())
	assert.Equal(t, "Иванов Иван Иванович", got[1].FullName())
	assert.Equal(t, "15.08.1990", got[1].FormattedDate())
	assert.Equal(t, "Сидоров Сидор", got[2].FullName())

	ids, err := repo.ListChatIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestSQLiteRepository_DeleteNullMiddleName(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteStore(t)

	require.NoError(t, repo.Insert(ctx, &Birthday{LastName: "Иванов", FirstName: "Иван", BirthDate: ymd(1990, time.August, 15), ChatID: 42}))
	require.NoError(t, repo.Insert(ctx, &Birthday{LastName: "Иванов", FirstName: "Иван", MiddleName: strPtr(""), BirthDate: ymd(1991, time.May, 5), ChatID: 42}))
	require.NoError(t, repo.Insert(ctx, &Birthday{LastName: "Иванов", FirstName: "Иван", BirthDate: ymd(1992, time.June, 6), ChatID: 42}))

	// отсутствующее отчество совпадает только с отсутствующим
	n, err := repo.DeleteByKey(ctx, Key{ChatID: 42, LastName: "Иванов", FirstName: "Иван"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := repo.FindAllForChat(ctx, 42)
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.NotNil(t, left[0].MiddleName)
	assert.Equal(t, "", *left[0].MiddleName)

	n, err = repo.DeleteByKey(ctx, Key{ChatID: 42, LastName: "Иванов", FirstName: "Иван", MiddleName: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByKey(ctx, Key{ChatID: 42, LastName: "Иванов", FirstName: "Иван"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteRepository_FindByMonthDay(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteStore(t)

	require.NoError(t, repo.Insert(ctx, &Birthday{LastName: "Високосный", FirstName: "Лёва", BirthDate: ymd(2000, time.February, 29), ChatID: 5}))
	require.NoError(t, repo.Insert(ctx, &Birthday{LastName: "Другой", FirstName: "Чат", BirthDate: ymd(1996, time.February, 29), ChatID: 6}))

	chat := int64(5)
	got, err := repo.FindByMonthDay(ctx, MonthDay{Month: time.February, Day: 29}, &chat)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "29.02.2000", got[0].FormattedDate())

	all, err := repo.FindByMonthDay(ctx, MonthDay{Month: time.February, Day: 29}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := repo.FindByMonthDay(ctx, MonthDay{Month: time.February, Day: 28}, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
