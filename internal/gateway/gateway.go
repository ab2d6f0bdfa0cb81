// Package gateway описывает границу между логикой бота и транспортом.
// Обработчики возвращают Reply, а транспорт (Telegram) решает, как их отрисовать.
package gateway

import "context"

// ParseModeHTML - текст ответа размечен HTML.
const ParseModeHTML = "HTML"

// Keyboard - reply-клавиатура: строки кнопок с текстовыми подписями.
// Remove=true убирает клавиатуру у пользователя.
type Keyboard struct {
	Rows   [][]string
	Remove bool
}

// Document - файл, который нужно отправить в чат.
type Document struct {
	Name  string
	Bytes []byte
}

// Reply - одно исходящее сообщение.
type Reply struct {
	Text      string
	ParseMode string
	Keyboard  *Keyboard
	Document  *Document
}

// Text создаёт простой текстовый ответ без клавиатуры.
func Text(s string) Reply {
	return Reply{Text: s}
}

// Sender доставляет сообщения в чат. Ошибка доставки возвращается
// вызывающему, который её логирует и продолжает работу.
type Sender interface {
	Send(ctx context.Context, chatID int64, r Reply) error
}
