// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование дат, работа с часовыми поясами.
package common

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DateLayout - формат даты для ввода и отображения (дд.мм.гггг).
const DateLayout = "02.01.2006"

// ShortDateLayout - день и месяц без года (дд.мм).
const ShortDateLayout = "02.01"

// LoadLocation загружает часовой пояс по имени.
// Если tzdata недоступна и это Москва - используем UTC+3 вручную,
// для остальных поясов откатываемся на UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc
	}
	if name == "Europe/Moscow" {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		return time.FixedZone("MSK", 3*60*60)
	}
	log.WithError(err).WithField("timezone", name).Warn("Не удалось загрузить часовой пояс, используем UTC")
	return time.UTC
}

// StartOfDay отбрасывает время, оставляя дату в том же часовом поясе.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate разбирает строку строго в формате дд.мм.гггг.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate форматирует дату как дд.мм.гггг.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsLeapYear проверяет, високосный ли год.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// MonthName возвращает название месяца в именительном падеже.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return monthNames[m-1]
}
