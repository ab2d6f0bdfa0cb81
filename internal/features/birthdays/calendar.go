// Package birthdays - calendar.go выгружает дни рождения чата в iCalendar.
package birthdays

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

const (
	icalProdID   = "-//serotonyl//Birthday Bot//RU"
	icalCalName  = "Дни рождения"
	icalUIDHost  = "birthday-bot"
	icalYearly   = "FREQ=YEARLY"
	icalCalScale = "GREGORIAN"
)

// ExportCalendar собирает .ics: одно ежегодное событие на весь день на каждую запись.
// UID детерминирован, поэтому повторный импорт в календарь не плодит дубликаты.
func ExportCalendar(list []*Birthday, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icalProdID)
	cal.Props.SetText(ical.PropCalendarScale, icalCalScale)
	cal.Props.SetText("X-WR-CALNAME", icalCalName)

	stamp := ical.NewProp(ical.PropDateTimeStamp)
	stamp.SetDateTime(now.UTC())

	for _, b := range list {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, eventUID(b))
		event.Props.Set(stamp)
		event.Props.SetText(ical.PropSummary, "🎂 "+b.FullName())
		event.Props.SetText(ical.PropDescription, "Дата рождения: "+b.FormattedDate())

		start := ical.NewProp(ical.PropDateTimeStart)
		start.SetDate(b.BirthDate)
		event.Props.Set(start)

		// VALUE=RECUR ставить не нужно, поэтому значение задаём напрямую
		rrule := ical.NewProp(ical.PropRecurrenceRule)
		rrule.Value = icalYearly
		event.Props.Set(rrule)

		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("ошибка кодирования iCalendar: %w", err)
	}
	return buf.Bytes(), nil
}

func eventUID(b *Birthday) string {
	input := fmt.Sprintf("%d|%s|%s", b.ChatID, b.FullName(), b.BirthDate.Format(isoDate))
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x@%s", sum[:12], icalUIDHost)
}
