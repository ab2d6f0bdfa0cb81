// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// maxLoggedRunes - сколько символов текста попадает в лог.
const maxLoggedRunes = 50

// LogMessage логирует входящее сообщение.
// Записывает: chat_id, user_id, username, текст (первые 50 символов) или имя файла.
func LogMessage(message *tgbotapi.Message) {
	if message == nil || message.Chat == nil {
		return
	}

	fields := log.Fields{
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"text":      Truncate(message.Text, maxLoggedRunes),
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.UserName
	}
	if message.Document != nil {
		fields["document"] = message.Document.FileName
		fields["size"] = message.Document.FileSize
	}

	log.WithFields(fields).Debug("Входящее сообщение")
}

// Truncate обрезает строку до n символов (не байт) и добавляет "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
