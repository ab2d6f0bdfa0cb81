// Package birthdays - service.go содержит бизнес-логику: добавление, удаление
// и поиск дней рождения по календарному дню без учёта года.
package birthdays

import (
	"context"
	"strings"
	"time"

	"github.com/jmhodges/clock"

	"serotonyl.ru/birthday-bot/internal/common"
)

// Service управляет записями о днях рождения.
type Service struct {
	store Store
	clock clock.Clock
	loc   *time.Location
}

// NewService создаёт сервис. loc - часовой пояс, в котором считается "сегодня".
func NewService(store Store, clk clock.Clock, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, clock: clk, loc: loc}
}

// Today возвращает начало текущего дня в часовом поясе сервиса.
func (s *Service) Today() time.Time {
	return common.StartOfDay(s.clock.Now().In(s.loc))
}

// Add сохраняет новую запись. Пустое отчество считается отсутствующим.
func (s *Service) Add(ctx context.Context, chatID int64, lastName, firstName string, middleName *string, birthDate time.Time) (*Birthday, error) {
	lastName = strings.TrimSpace(lastName)
	firstName = strings.TrimSpace(firstName)
	if lastName == "" || firstName == "" {
		return nil, common.ErrInvalidFormat
	}
	if middleName != nil && strings.TrimSpace(*middleName) == "" {
		middleName = nil
	}

	b := &Birthday{
		LastName:   lastName,
		FirstName:  firstName,
		MiddleName: middleName,
		BirthDate:  time.Date(birthDate.Year(), birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC),
		ChatID:     chatID,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete удаляет все записи с ключом key.
// Если ничего не совпало - возвращает common.ErrNotFound.
func (s *Service) Delete(ctx context.Context, key Key) (int64, error) {
	n, err := s.store.DeleteByKey(ctx, key)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, common.ErrNotFound
	}
	return n, nil
}

// FindByDate возвращает записи, чей день рождения приходится на date.
// 29 февраля в невисокосный год отмечается 28 февраля.
func (s *Service) FindByDate(ctx context.Context, date time.Time, chatID *int64) ([]*Birthday, error) {
	md := MonthDayOf(date)
	out, err := s.store.FindByMonthDay(ctx, md, chatID)
	if err != nil {
		return nil, err
	}
	if md.Month == time.February && md.Day == 28 && !common.IsLeapYear(date.Year()) {
		leap, err := s.store.FindByMonthDay(ctx, MonthDay{Month: time.February, Day: 29}, chatID)
		if err != nil {
			return nil, err
		}
		out = append(out, leap...)
	}
	return out, nil
}

// FindToday - дни рождения в чате на сегодня.
func (s *Service) FindToday(ctx context.Context, chatID int64) ([]*Birthday, error) {
	return s.FindByDate(ctx, s.Today(), &chatID)
}

// ListAll возвращает все записи чата в порядке месяц-день.
func (s *Service) ListAll(ctx context.Context, chatID int64) ([]*Birthday, error) {
	return s.store.FindAllForChat(ctx, chatID)
}

// MonthGroup - записи одного месяца.
type MonthGroup struct {
	Month     time.Month
	Birthdays []*Birthday
}

// ListByMonth группирует записи чата по месяцам (январь первым),
// внутри месяца - по дню.
func (s *Service) ListByMonth(ctx context.Context, chatID int64) ([]MonthGroup, error) {
	all, err := s.ListAll(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return GroupByMonth(all), nil
}

// GroupByMonth раскладывает уже упорядоченные записи по месяцам.
func GroupByMonth(list []*Birthday) []MonthGroup {
	var groups []MonthGroup
	for _, b := range list {
		m := b.BirthDate.Month()
		if len(groups) == 0 || groups[len(groups)-1].Month != m {
			groups = append(groups, MonthGroup{Month: m})
		}
		last := &groups[len(groups)-1]
		last.Birthdays = append(last.Birthdays, b)
	}
	return groups
}

// ChatIDs возвращает все чаты, у которых есть записи.
func (s *Service) ChatIDs(ctx context.Context) ([]int64, error) {
	return s.store.ListChatIDs(ctx)
}
