package birthdays

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/birthday-bot/internal/common"
)

// mockStore - Store на testify/mock для проверки ошибок хранилища.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, b *Birthday) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockStore) DeleteByKey(ctx context.Context, key Key) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) FindByMonthDay(ctx context.Context, md MonthDay, chatID *int64) ([]*Birthday, error) {
	args := m.Called(ctx, md, chatID)
	list, _ := args.Get(0).([]*Birthday)
	return list, args.Error(1)
}

func (m *mockStore) FindAllForChat(ctx context.Context, chatID int64) ([]*Birthday, error) {
	args := m.Called(ctx, chatID)
	list, _ := args.Get(0).([]*Birthday)
	return list, args.Error(1)
}

func (m *mockStore) ListChatIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func newFakeClock(y int, m time.Month, d int) clock.FakeClock {
	fc := clock.NewFake()
	fc.Set(time.Date(y, m, d, 12, 0, 0, 0, time.UTC))
	return fc
}

func newTestService(t *testing.T, fc clock.Clock) *Service {
	t.Helper()
	return NewService(newSQLiteStore(t), fc, time.UTC)
}

func TestService_AddAndListAll(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeClock(2026, time.October, 19))

	req, err := ParseAddInput([]string{"Иванов", "Иван", "15.08.1990"})
	require.NoError(t, err)
	b, err := svc.Add(ctx, 42, req.LastName, req.FirstName, req.MiddleName, req.BirthDate)
	require.NoError(t, err)
	assert.Equal(t, "Иванов Иван", b.FullName())
	assert.Equal(t, "15.08.1990", b.FormattedDate())

	groups, err := svc.ListByMonth(ctx, 42)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, time.August, groups[0].Month)
	require.Len(t, groups[0].Birthdays, 1)
	assert.Equal(t, "📅 Все дни рождения:\n\n🗓 Август:\n• 15.08.1990 - Иванов Иван\n\n", FormatMonthGroups(groups))
}

func TestService_AddRejectsEmptyNames(t *testing.T) {
	svc := newTestService(t, newFakeClock(2026, time.October, 19))
	_, err := svc.Add(context.Background(), 1, " ", "Иван", nil, time.Now())
	assert.ErrorIs(t, err, common.ErrInvalidFormat)
}

func TestService_AddThenDeleteIsInverse(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeClock(2026, time.October, 19))
	middle := "Петрович"

	_, err := svc.Add(ctx, 7, "Петров", "Пётр", &middle, time.Date(1980, time.January, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	n, err := svc.Delete(ctx, Key{ChatID: 7, LastName: "Петров", FirstName: "Пётр", MiddleName: strPtr("Петрович")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := svc.ListAll(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = svc.Delete(ctx, Key{ChatID: 7, LastName: "Петров", FirstName: "Пётр", MiddleName: strPtr("Петрович")})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_FindByDate_LeapDay(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeClock(2026, time.October, 19))
	chat := int64(9)

	_, err := svc.Add(ctx, chat, "Високосный", "Лёва", nil, time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = svc.Add(ctx, chat, "Обычный", "Фёдор", nil, time.Date(1999, time.February, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// невисокосный год: 28 февраля празднуют оба
	got, err := svc.FindByDate(ctx, time.Date(2027, time.February, 28, 0, 0, 0, 0, time.UTC), &chat)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Обычный Фёдор", got[0].FullName())
	assert.Equal(t, "Високосный Лёва", got[1].FullName())

	// високосный год: 29 февраля отдельно
	got, err = svc.FindByDate(ctx, time.Date(2028, time.February, 28, 0, 0, 0, 0, time.UTC), &chat)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Обычный Фёдор", got[0].FullName())

	got, err = svc.FindByDate(ctx, time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC), &chat)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "29.02.2000", got[0].FormattedDate())

	// 1 марта невисокосного года 29 февраля уже не всплывает
	got, err = svc.FindByDate(ctx, time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC), &chat)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_FindToday_UsesLocation(t *testing.T) {
	ctx := context.Background()
	fc := clock.NewFake()
	// 22:30 UTC 14 августа - в Москве уже 15 августа
	fc.Set(time.Date(2026, time.August, 14, 22, 30, 0, 0, time.UTC))
	svc := NewService(newSQLiteStore(t), fc, time.FixedZone("MSK", 3*60*60))

	_, err := svc.Add(ctx, 42, "Иванов", "Иван", nil, time.Date(1990, time.August, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	got, err := svc.FindToday(ctx, 42)
	require.NoError(t, err)
	require.Len(t, got, 1)

	empty, err := svc.FindToday(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestService_StoreErrors(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	svc := NewService(store, newFakeClock(2027, time.February, 28), time.UTC)
	boom := errors.New("db down")
	chat := int64(1)

	store.On("FindByMonthDay", ctx, MonthDay{Month: time.February, Day: 28}, &chat).Return([]*Birthday{}, nil)
	store.On("FindByMonthDay", ctx, MonthDay{Month: time.February, Day: 29}, &chat).Return(nil, boom)
	_, err := svc.FindToday(ctx, chat)
	assert.ErrorIs(t, err, boom)

	store.On("DeleteByKey", ctx, mock.Anything).Return(int64(0), boom)
	_, err = svc.Delete(ctx, Key{ChatID: chat, LastName: "А", FirstName: "Б"})
	assert.ErrorIs(t, err, boom)

	store.On("FindAllForChat", ctx, chat).Return(nil, boom)
	_, err = svc.ListByMonth(ctx, chat)
	assert.ErrorIs(t, err, boom)

	store.AssertExpectations(t)
}

func TestGroupByMonth(t *testing.T) {
	list := []*Birthday{
		{LastName: "А", FirstName: "А", BirthDate: time.Date(1990, time.January, 3, 0, 0, 0, 0, time.UTC)},
		{LastName: "Б", FirstName: "Б", BirthDate: time.Date(1991, time.January, 20, 0, 0, 0, 0, time.UTC)},
		{LastName: "В", FirstName: "В", BirthDate: time.Date(1992, time.December, 1, 0, 0, 0, 0, time.UTC)},
	}
	groups := GroupByMonth(list)
	require.Len(t, groups, 2)
	assert.Equal(t, time.January, groups[0].Month)
	assert.Len(t, groups[0].Birthdays, 2)
	assert.Equal(t, time.December, groups[1].Month)
	assert.Empty(t, GroupByMonth(nil))
}
