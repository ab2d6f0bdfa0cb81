// Package birthdays хранит дни рождения, привязанные к чату,
// и ведёт диалог добавления/удаления записей.
// models.go описывает запись о дне рождения и ключи поиска.
package birthdays

import (
	"fmt"
	"strings"
	"time"

	"serotonyl.ru/birthday-bot/internal/common"
)

// Birthday - запись о дне рождения.
// Естественный ключ: (ChatID, LastName, FirstName, MiddleName).
// Уникальность в хранилище не требуется.
type Birthday struct {
	ID         int64     `db:"id"`
	LastName   string    `db:"last_name"`
	FirstName  string    `db:"first_name"`
	MiddleName *string   `db:"middle_name"` // nil - отчества нет (это не то же самое, что "")
	BirthDate  time.Time `db:"birth_date"`  // год нужен только для возраста
	ChatID     int64     `db:"chat_id"`
}

// FullName возвращает "Фамилия Имя[ Отчество]".
func (b *Birthday) FullName() string {
	return FormatName(b.LastName, b.FirstName, b.MiddleName)
}

// FormattedDate возвращает дату рождения как дд.мм.гггг.
func (b *Birthday) FormattedDate() string {
	return common.FormatDate(b.BirthDate)
}

// YearsTurning - сколько лет исполняется в году year (year - год рождения).
func (b *Birthday) YearsTurning(year int) int {
	return year - b.BirthDate.Year()
}

// Key возвращает естественный ключ записи.
func (b *Birthday) Key() Key {
	return Key{ChatID: b.ChatID, LastName: b.LastName, FirstName: b.FirstName, MiddleName: b.MiddleName}
}

// Key - естественный ключ для удаления.
type Key struct {
	ChatID     int64
	LastName   string
	FirstName  string
	MiddleName *string
}

// FullName возвращает имя по ключу в том же формате, что и Birthday.FullName.
func (k Key) FullName() string {
	return FormatName(k.LastName, k.FirstName, k.MiddleName)
}

// FormatName собирает ФИО; отсутствующее отчество пропускается.
func FormatName(lastName, firstName string, middleName *string) string {
	var sb strings.Builder
	sb.WriteString(lastName)
	sb.WriteString(" ")
	sb.WriteString(firstName)
	if middleName != nil {
		sb.WriteString(" ")
		sb.WriteString(*middleName)
	}
	return sb.String()
}

// MonthDay - календарный день без года.
type MonthDay struct {
	Month time.Month
	Day   int
}

// MonthDayOf возвращает месяц и день даты t.
func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

// String возвращает ключ "ММ-ДД" - в этом формате хранилища сравнивают даты.
func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}
