// Package birthdays - parser.go превращает входящий текст в команду.
// Кнопки меню и slash-команды дают одни и те же варианты Command.
package birthdays

import (
	"strings"
	"time"

	"serotonyl.ru/birthday-bot/internal/common"
)

// Подписи кнопок главного меню.
const (
	ButtonAdd    = "➕ Добавить день рождения"
	ButtonDelete = "➖ Удалить день рождения"
	ButtonToday  = "🎂 Сегодняшние дни рождения"
	ButtonList   = "📅 Все дни рождения"
	ButtonHelp   = "❓ Помощь"
	ButtonCancel = "❌ Отмена"
	ButtonExport = "📤 Экспорт"
)

// CommandKind - тип команды.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdStart
	CmdHelp
	CmdAdd
	CmdDelete
	CmdToday
	CmdList
	CmdCancel
	CmdExport
)

var kindNames = [...]string{"unknown", "start", "help", "add", "delete", "today", "list", "cancel", "export"}

func (k CommandKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Command - разобранная команда.
// Args - аргументы slash-команды (например, "/addbirthday Иванов Иван 15.08.1990").
// Text - исходный текст; для CmdUnknown он разбирается по состоянию диалога.
type Command struct {
	Kind CommandKind
	Args []string
	Text string
}

var buttons = map[string]CommandKind{
	ButtonAdd:    CmdAdd,
	ButtonDelete: CmdDelete,
	ButtonToday:  CmdToday,
	ButtonList:   CmdList,
	ButtonHelp:   CmdHelp,
	ButtonCancel: CmdCancel,
	ButtonExport: CmdExport,
}

var slashCommands = map[string]CommandKind{
	"start":          CmdStart,
	"help":           CmdHelp,
	"addbirthday":    CmdAdd,
	"deletebirthday": CmdDelete,
	"checkbirthdays": CmdToday,
	"listbirthdays":  CmdList,
	"cancel":         CmdCancel,
	"export":         CmdExport,
}

// ParseCommand разбирает текст сообщения.
// Суффикс "@имябота" у slash-команды отбрасывается.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)
	if kind, ok := buttons[text]; ok {
		return Command{Kind: kind, Text: text}
	}
	if !strings.HasPrefix(text, "/") {
		return Command{Kind: CmdUnknown, Text: text}
	}

	parts := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(parts) == 0 {
		return Command{Kind: CmdUnknown, Text: text}
	}
	name := strings.ToLower(parts[0])
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	kind, ok := slashCommands[name]
	if !ok {
		return Command{Kind: CmdUnknown, Text: text}
	}
	return Command{Kind: kind, Args: parts[1:], Text: text}
}

// AddRequest - данные для добавления записи.
type AddRequest struct {
	LastName   string
	FirstName  string
	MiddleName *string
	BirthDate  time.Time
}

// ParseAddInput разбирает "Фамилия Имя [Отчество] дд.мм.гггг".
func ParseAddInput(tokens []string) (AddRequest, error) {
	if len(tokens) != 3 && len(tokens) != 4 {
		return AddRequest{}, common.ErrInvalidFormat
	}
	date, err := common.ParseDate(tokens[len(tokens)-1])
	if err != nil {
		return AddRequest{}, err
	}
	req := AddRequest{LastName: tokens[0], FirstName: tokens[1], BirthDate: date}
	if len(tokens) == 4 {
		middle := tokens[2]
		req.MiddleName = &middle
	}
	return req, nil
}

// ParseDeleteInput разбирает "Фамилия Имя [Отчество]" в ключ удаления.
func ParseDeleteInput(chatID int64, tokens []string) (Key, error) {
	if len(tokens) != 2 && len(tokens) != 3 {
		return Key{}, common.ErrInvalidFormat
	}
	key := Key{ChatID: chatID, LastName: tokens[0], FirstName: tokens[1]}
	if len(tokens) == 3 {
		middle := tokens[2]
		key.MiddleName = &middle
	}
	return key, nil
}
