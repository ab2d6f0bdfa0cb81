// Package filters отсекает апдейты, которые бот не обрабатывает.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает только сообщения живых пользователей
// из личных чатов и групп.
type ChatFilter struct {
	allowedTypes map[string]bool
}

// NewChatFilter создаёт фильтр. Каналы не поддерживаются: там нет отправителя.
func NewChatFilter() *ChatFilter {
	return &ChatFilter{
		allowedTypes: map[string]bool{
			"private":    true,
			"group":      true,
			"supergroup": true,
		},
	}
}

// Accept решает, обрабатывать ли сообщение.
func (f *ChatFilter) Accept(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Debug("nil message/chat")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	})

	if message.From == nil {
		logger.Debug("deny: nil message.From (service/channel message?)")
		return false
	}
	if message.From.IsBot {
		logger.WithField("user_id", message.From.ID).Debug("deny: message from bot")
		return false
	}
	if !f.allowedTypes[message.Chat.Type] {
		logger.Debug("deny: chat type")
		return false
	}
	if message.Text == "" && message.Document == nil {
		return false
	}
	return true
}
