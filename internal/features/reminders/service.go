// Package reminders - service.go выполняет ежедневную рассылку напоминаний:
// сегодня и за несколько дней до дня рождения.
package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/birthday-bot/internal/common"
	"serotonyl.ru/birthday-bot/internal/features/birthdays"
	"serotonyl.ru/birthday-bot/internal/gateway"
)

// Finder - то, что рассылке нужно от сервиса дней рождения.
type Finder interface {
	Today() time.Time
	ChatIDs(ctx context.Context) ([]int64, error)
	FindByDate(ctx context.Context, date time.Time, chatID *int64) ([]*birthdays.Birthday, error)
}

// Stats - итоги одного запуска рассылки.
type Stats struct {
	Chats   int
	Sent    int
	Skipped int
	Failed  int
}

// Service рассылает напоминания по всем чатам.
type Service struct {
	finder   Finder
	sentLog  Log
	sender   gateway.Sender
	congrats *Congratulator
	offsets  []int
}

// NewService создаёт сервис рассылки. offsets - за сколько дней напоминать (0 - сегодня).
func NewService(finder Finder, sentLog Log, sender gateway.Sender, congrats *Congratulator, offsets []int) *Service {
	return &Service{
		finder:   finder,
		sentLog:  sentLog,
		sender:   sender,
		congrats: congrats,
		offsets:  offsets,
	}
}

// Run выполняет одну рассылку. Чаты и смещения обрабатываются по очереди;
// ошибка в одном чате не мешает остальным.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	today := s.finder.Today()

	chatIDs, err := s.finder.ChatIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("ошибка получения списка чатов: %w", err)
	}
	stats.Chats = len(chatIDs)

	for _, chatID := range chatIDs {
		for _, offset := range s.offsets {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			sent, err := s.notify(ctx, chatID, today, offset)
			switch {
			case err != nil:
				stats.Failed++
				log.WithError(err).WithFields(log.Fields{
					"chat_id": chatID,
					"offset":  offset,
				}).Error("[CRON] Ошибка отправки напоминания")
			case sent:
				stats.Sent++
			default:
				stats.Skipped++
			}
		}
	}

	log.WithFields(log.Fields{
		"date":    today.Format(common.DateLayout),
		"chats":   stats.Chats,
		"sent":    stats.Sent,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	}).Info("[CRON] Рассылка напоминаний завершена")
	return stats, nil
}

// notify отправляет одно напоминание (чат, смещение), если есть кого поздравлять
// и оно ещё не отправлялось сегодня.
func (s *Service) notify(ctx context.Context, chatID int64, today time.Time, offset int) (bool, error) {
	already, err := s.sentLog.WasSent(ctx, chatID, today, offset)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	target := today.AddDate(0, 0, offset)
	list, err := s.finder.FindByDate(ctx, target, &chatID)
	if err != nil {
		return false, err
	}
	if len(list) == 0 {
		return false, nil
	}

	var text string
	if offset == 0 {
		text = FormatToday(list, target, s.congrats.Pick())
	} else {
		text = FormatAhead(list, target, offset)
	}
	if err := s.sender.Send(ctx, chatID, gateway.Text(text)); err != nil {
		return false, fmt.Errorf("ошибка доставки: %w", err)
	}

	if err := s.sentLog.MarkSent(ctx, chatID, today, offset); err != nil {
		// сообщение уже ушло, повтор возможен только при перезапуске в тот же день
		log.WithError(err).WithField("chat_id", chatID).Warn("[CRON] Не удалось записать отправку в журнал")
	}
	log.WithFields(log.Fields{"chat_id": chatID, "offset": offset, "count": len(list)}).Debug("[CRON] Напоминание отправлено")
	return true, nil
}

// FormatToday - напоминание в сам день рождения.
func FormatToday(list []*birthdays.Birthday, date time.Time, congratulation string) string {
	var sb strings.Builder
	sb.WriteString("🎉 Сегодня день рождения у:\n\n")
	for _, b := range list {
		writeLine(&sb, b, date.Year(), "")
	}
	if congratulation != "" {
		sb.WriteString("\n")
		sb.WriteString(congratulation)
	}
	return sb.String()
}

// FormatAhead - напоминание за offset дней.
func FormatAhead(list []*birthdays.Birthday, date time.Time, offset int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⏳ Через %d %s (%s) день рождения у:\n\n",
		offset, common.PluralizeDays(offset), date.Format(common.ShortDateLayout))
	for _, b := range list {
		writeLine(&sb, b, date.Year(), "исполнится ")
	}
	return sb.String()
}

func writeLine(sb *strings.Builder, b *birthdays.Birthday, year int, agePrefix string) {
	sb.WriteString("• ")
	sb.WriteString(b.FullName())
	sb.WriteString(" (")
	sb.WriteString(b.FormattedDate())
	sb.WriteString(")")
	if age := b.YearsTurning(year); age > 0 {
		fmt.Fprintf(sb, " — %s%d %s", agePrefix, age, common.PluralizeYears(age))
	}
	sb.WriteString("\n")
}
