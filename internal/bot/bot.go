// Package bot содержит транспорт Telegram: polling, отправку ответов
// и доставку входящих сообщений в обработчик диалога.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/birthday-bot/internal/bot/filters"
	"serotonyl.ru/birthday-bot/internal/bot/middleware"
	"serotonyl.ru/birthday-bot/internal/config"
	"serotonyl.ru/birthday-bot/internal/gateway"
)

// MaxDocumentSize - максимальный размер принимаемого файла контактов.
const MaxDocumentSize = 1 << 20

const msgDocumentTooLarge = "❌ Файл слишком большой (максимум 1 МБ)"

// API - методы tgbotapi.BotAPI, которыми пользуется бот.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

// MessageHandler - обработчик диалога (birthdays.Handler).
type MessageHandler interface {
	Handle(ctx context.Context, chatID int64, text string) []gateway.Reply
	HandleDocument(ctx context.Context, chatID int64, fileName string, data []byte) []gateway.Reply
}

// Bot - главная структура бота, объединяющая транспорт и обработчик.
type Bot struct {
	api     API
	cfg     *config.Config
	handler MessageHandler
	http    *http.Client

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	wg       sync.WaitGroup
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(api API, cfg *config.Config, handler MessageHandler, clk clock.Clock) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		handler:     handler,
		http:        &http.Client{Timeout: 30 * time.Second},
		chatFilter:  filters.NewChatFilter(),
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, clk),
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram и блокируется до отмены ctx.
// Перед возвратом дожидается уже начатых обработчиков.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	defer func() {
		b.wg.Wait()
		b.rateLimiter.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer func() {
					<-b.inflight
					b.wg.Done()
				}()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	var chatID int64
	if message != nil && message.Chat != nil {
		chatID = message.Chat.ID
	}
	defer middleware.RecoverFromPanic(update.UpdateID, chatID)

	if !b.chatFilter.Accept(message) {
		return
	}

	middleware.LogMessage(message)

	if !b.rateLimiter.Allow(chatID) {
		log.WithField("chat_id", chatID).Debug("rate limited")
		return
	}

	var replies []gateway.Reply
	if message.Document != nil {
		replies = b.handleDocument(ctx, message)
	} else {
		replies = b.handler.Handle(ctx, chatID, message.Text)
	}

	for _, r := range replies {
		if err := b.Send(ctx, chatID, r); err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
		}
	}
}

func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) []gateway.Reply {
	chatID := message.Chat.ID
	doc := message.Document
	if doc.FileSize > MaxDocumentSize {
		return []gateway.Reply{gateway.Text(msgDocumentTooLarge)}
	}

	data, err := b.download(ctx, doc.FileID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id":  chatID,
			"document": doc.FileName,
		}).Error("Ошибка загрузки файла")
		return []gateway.Reply{gateway.Text("⚠️ Не удалось загрузить файл, попробуйте позже")}
	}
	return b.handler.HandleDocument(ctx, chatID, doc.FileName, data)
}

// download скачивает файл из Telegram по file_id.
func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ссылки на файл: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки файла: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("загрузка файла: статус %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("файл больше %d байт", MaxDocumentSize)
	}
	return data, nil
}

// Send отправляет один ответ в чат. Реализует gateway.Sender.
func (b *Bot) Send(ctx context.Context, chatID int64, r gateway.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.api.Send(BuildChattable(chatID, r)); err != nil {
		return fmt.Errorf("telegram send (chat %d): %w", chatID, err)
	}
	log.WithField("chat_id", chatID).Debug("message sent")
	return nil
}

// BuildChattable превращает gateway.Reply в запрос Telegram:
// документ с подписью или текстовое сообщение с клавиатурой.
func BuildChattable(chatID int64, r gateway.Reply) tgbotapi.Chattable {
	markup := buildMarkup(r.Keyboard)

	if r.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: r.Document.Name, Bytes: r.Document.Bytes})
		doc.Caption = r.Text
		doc.ParseMode = r.ParseMode
		if markup != nil {
			doc.ReplyMarkup = markup
		}
		return doc
	}

	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.ParseMode = r.ParseMode
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return msg
}

func buildMarkup(kb *gateway.Keyboard) any {
	if kb == nil {
		return nil
	}
	if kb.Remove {
		return tgbotapi.NewRemoveKeyboard(true)
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, labels := range kb.Rows {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, row)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}
