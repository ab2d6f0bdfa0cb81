// Package birthdays - handlers.go ведёт диалог с чатом: меню, добавление,
// удаление и просмотр дней рождения.
package birthdays

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/birthday-bot/internal/common"
	"serotonyl.ru/birthday-bot/internal/gateway"
)

// Тексты ответов.
const (
	msgMenu            = "Выберите действие:"
	msgAddPrompt       = "Введите данные в формате:\nФамилия Имя Отчество(опционально) дд.мм.гггг\n\nПример:\nИванов Иван 15.08.1990\n\nИли нажмите ❌ Отмена"
	msgAddFormat       = "❌ Неверный формат. Нужно: Фамилия Имя [Отчество] дд.мм.гггг"
	msgDateFormat      = "❌ Ошибка формата даты. Используйте дд.мм.гггг"
	msgDeletePrompt    = "Выберите запись для удаления:\n(Фамилия Имя Отчество)\n\nИли нажмите ❌ Отмена"
	msgDeleteFormat    = "❌ Неверный формат. Нужно: Фамилия Имя [Отчество]"
	msgNothingToDelete = "Нет записей для удаления"
	msgNotFound        = "❌ Запись не найдена"
	msgNobodyToday     = "Сегодня никто не празднует день рождения 🎈"
	msgTodayHeader     = "🎉 Сегодня день рождения у:\n\n"
	msgEmptyList       = "В базе нет записей о днях рождения"
	msgListHeader      = "📅 Все дни рождения:\n\n"
	msgGenericError    = "⚠️ Произошла ошибка, попробуйте позже"
	msgExportEmpty     = "Нечего экспортировать: в базе нет записей"
	msgImportDisabled  = "Импорт контактов отключён"
	msgImportWrongFile = "Пришлите файл контактов в формате .vcf"

	msgHelp = `🎂 <b>Бот-напоминатель о днях рождения</b> 🎂

<b>Как использовать:</b>
1. Добавить день рождения - вводите ФИО и дату
2. Удалить - выбираете из списка
3. Просматривайте дни рождения

<b>Формат даты:</b> дд.мм.гггг (например 15.08.1990)

<b>Команды:</b>
/addbirthday Фамилия Имя [Отчество] дд.мм.гггг
/deletebirthday Фамилия Имя [Отчество]
/checkbirthdays - кто празднует сегодня
/listbirthdays - все дни рождения
/export - календарь .ics

Пришлите файл .vcf, чтобы импортировать дни рождения из контактов.
Напоминания приходят сегодня, за 3 и за 7 дней.

Данные хранятся отдельно для каждого чата`
)

// ExportFileName - имя файла календаря.
const ExportFileName = "birthdays.ics"

// HandlerOptions - переключатели дополнительных функций.
type HandlerOptions struct {
	ExportEnabled bool
	ImportEnabled bool
}

// Handler обрабатывает сообщения чата и возвращает ответы для отправки.
type Handler struct {
	service  *Service
	sessions *SessionStore
	opts     HandlerOptions
}

// NewHandler создаёт обработчик диалога.
func NewHandler(service *Service, sessions *SessionStore, opts HandlerOptions) *Handler {
	return &Handler{service: service, sessions: sessions, opts: opts}
}

// Handle обрабатывает одно текстовое сообщение чата.
// Весь шаг (чтение состояния, работа с хранилищем, новое состояние)
// выполняется под блокировкой сессии чата.
func (h *Handler) Handle(ctx context.Context, chatID int64, text string) []gateway.Reply {
	cmd := ParseCommand(text)

	sess, unlock := h.sessions.Lock(chatID)
	defer unlock()

	state := h.sessions.State(sess)
	log.WithFields(log.Fields{
		"chat_id": chatID,
		"cmd":     cmd.Kind.String(),
		"state":   state.String(),
	}).Debug("birthdays: входящее сообщение")

	// отмена работает из любого состояния
	if cmd.Kind == CmdCancel {
		h.sessions.Set(sess, StateIdle)
		return []gateway.Reply{h.menu()}
	}

	switch state {
	case StateAwaitingAdd:
		h.sessions.Set(sess, StateIdle)
		return append(h.add(ctx, chatID, strings.Fields(cmd.Text)), h.menu())
	case StateAwaitingDelete:
		h.sessions.Set(sess, StateIdle)
		return append(h.delete(ctx, chatID, strings.Fields(cmd.Text)), h.menu())
	}

	switch cmd.Kind {
	case CmdAdd:
		if len(cmd.Args) > 0 {
			return append(h.add(ctx, chatID, cmd.Args), h.menu())
		}
		h.sessions.Set(sess, StateAwaitingAdd)
		return []gateway.Reply{{Text: msgAddPrompt, Keyboard: cancelKeyboard()}}

	case CmdDelete:
		if len(cmd.Args) > 0 {
			return append(h.delete(ctx, chatID, cmd.Args), h.menu())
		}
		return h.prepareDelete(ctx, sess, chatID)

	case CmdToday:
		return []gateway.Reply{h.today(ctx, chatID)}

	case CmdList:
		return []gateway.Reply{h.list(ctx, chatID)}

	case CmdHelp:
		help := h.menu()
		help.Text = msgHelp
		help.ParseMode = gateway.ParseModeHTML
		return []gateway.Reply{help}

	case CmdExport:
		if h.opts.ExportEnabled {
			return []gateway.Reply{h.export(ctx, chatID)}
		}
	}
	return []gateway.Reply{h.menu()}
}

// HandleDocument импортирует дни рождения из присланного файла .vcf.
func (h *Handler) HandleDocument(ctx context.Context, chatID int64, fileName string, data []byte) []gateway.Reply {
	if !h.opts.ImportEnabled {
		return []gateway.Reply{gateway.Text(msgImportDisabled)}
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".vcf") {
		return []gateway.Reply{gateway.Text(msgImportWrongFile)}
	}

	sess, unlock := h.sessions.Lock(chatID)
	defer unlock()
	h.sessions.Set(sess, StateIdle)

	reqs, skipped, err := ParseVCards(bytes.NewReader(data))
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("birthdays: не удалось разобрать vCard")
		return []gateway.Reply{gateway.Text(msgImportWrongFile)}
	}

	added := 0
	for _, req := range reqs {
		if _, err := h.service.Add(ctx, chatID, req.LastName, req.FirstName, req.MiddleName, req.BirthDate); err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("birthdays: ошибка импорта записи")
			return []gateway.Reply{gateway.Text(msgGenericError), h.menu()}
		}
		added++
	}

	log.WithFields(log.Fields{"chat_id": chatID, "added": added, "skipped": skipped}).Info("birthdays: импорт контактов")
	return []gateway.Reply{gateway.Text(fmt.Sprintf("📥 Импортировано: %d, пропущено: %d", added, skipped)), h.menu()}
}

func (h *Handler) add(ctx context.Context, chatID int64, tokens []string) []gateway.Reply {
	req, err := ParseAddInput(tokens)
	switch {
	case errors.Is(err, common.ErrInvalidFormat):
		return []gateway.Reply{gateway.Text(msgAddFormat)}
	case errors.Is(err, common.ErrInvalidDate):
		return []gateway.Reply{gateway.Text(msgDateFormat)}
	}

	b, err := h.service.Add(ctx, chatID, req.LastName, req.FirstName, req.MiddleName, req.BirthDate)
	if err != nil {
		return []gateway.Reply{h.storeError(chatID, "add", err)}
	}

	log.WithFields(log.Fields{"chat_id": chatID, "id": b.ID}).Info("birthdays: запись добавлена")
	return []gateway.Reply{gateway.Text("✅ Добавлен: " + b.FullName() + " - " + b.FormattedDate())}
}

func (h *Handler) prepareDelete(ctx context.Context, sess *Session, chatID int64) []gateway.Reply {
	records, err := h.service.ListAll(ctx, chatID)
	if err != nil {
		return []gateway.Reply{h.storeError(chatID, "delete", err), h.menu()}
	}
	if len(records) == 0 {
		return []gateway.Reply{gateway.Text(msgNothingToDelete)}
	}

	h.sessions.Set(sess, StateAwaitingDelete)

	kb := &gateway.Keyboard{}
	for _, b := range records {
		kb.Rows = append(kb.Rows, []string{b.FullName()})
	}
	kb.Rows = append(kb.Rows, []string{ButtonCancel})
	return []gateway.Reply{{Text: msgDeletePrompt, Keyboard: kb}}
}

func (h *Handler) delete(ctx context.Context, chatID int64, tokens []string) []gateway.Reply {
	key, err := ParseDeleteInput(chatID, tokens)
	if err != nil {
		return []gateway.Reply{gateway.Text(msgDeleteFormat)}
	}

	n, err := h.service.Delete(ctx, key)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return []gateway.Reply{gateway.Text(msgNotFound)}
	case err != nil:
		return []gateway.Reply{h.storeError(chatID, "delete", err)}
	}

	log.WithFields(log.Fields{"chat_id": chatID, "deleted": n}).Info("birthdays: записи удалены")
	return []gateway.Reply{gateway.Text("✅ Удален: " + key.FullName())}
}

func (h *Handler) today(ctx context.Context, chatID int64) gateway.Reply {
	list, err := h.service.FindToday(ctx, chatID)
	if err != nil {
		return h.storeError(chatID, "today", err)
	}
	if len(list) == 0 {
		return gateway.Text(msgNobodyToday)
	}

	var sb strings.Builder
	sb.WriteString(msgTodayHeader)
	for _, b := range list {
		sb.WriteString("• ")
		sb.WriteString(b.FullName())
		sb.WriteString("\n")
	}
	return gateway.Text(sb.String())
}

func (h *Handler) list(ctx context.Context, chatID int64) gateway.Reply {
	groups, err := h.service.ListByMonth(ctx, chatID)
	if err != nil {
		return h.storeError(chatID, "list", err)
	}
	if len(groups) == 0 {
		return gateway.Text(msgEmptyList)
	}
	return gateway.Text(FormatMonthGroups(groups))
}

// FormatMonthGroups рисует список дней рождения, сгруппированный по месяцам.
func FormatMonthGroups(groups []MonthGroup) string {
	var sb strings.Builder
	sb.WriteString(msgListHeader)
	for _, g := range groups {
		sb.WriteString("🗓 ")
		sb.WriteString(common.MonthName(g.Month))
		sb.WriteString(":\n")
		for _, b := range g.Birthdays {
			sb.WriteString("• ")
			sb.WriteString(b.FormattedDate())
			sb.WriteString(" - ")
			sb.WriteString(b.FullName())
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (h *Handler) export(ctx context.Context, chatID int64) gateway.Reply {
	list, err := h.service.ListAll(ctx, chatID)
	if err != nil {
		return h.storeError(chatID, "export", err)
	}
	if len(list) == 0 {
		return gateway.Text(msgExportEmpty)
	}

	data, err := ExportCalendar(list, h.service.Today())
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("birthdays: ошибка формирования календаря")
		return gateway.Text(msgGenericError)
	}
	return gateway.Reply{
		Text:     fmt.Sprintf("📤 Календарь дней рождения (%d)", len(list)),
		Document: &gateway.Document{Name: ExportFileName, Bytes: data},
	}
}

func (h *Handler) storeError(chatID int64, op string, err error) gateway.Reply {
	log.WithError(err).WithFields(log.Fields{"chat_id": chatID, "cmd": op}).Error("birthdays: ошибка хранилища")
	return gateway.Text(msgGenericError)
}

func (h *Handler) menu() gateway.Reply {
	rows := [][]string{
		{ButtonAdd, ButtonDelete},
		{ButtonToday, ButtonList},
		{ButtonHelp},
	}
	if h.opts.ExportEnabled {
		rows[2] = append(rows[2], ButtonExport)
	}
	return gateway.Reply{Text: msgMenu, Keyboard: &gateway.Keyboard{Rows: rows}}
}

func cancelKeyboard() *gateway.Keyboard {
	return &gateway.Keyboard{Rows: [][]string{{ButtonCancel}}}
}
