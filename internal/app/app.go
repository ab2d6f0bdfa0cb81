// Package app инициализирует все компоненты приложения.
// app.go - точка сборки: открывает хранилище, создаёт сервисы, обработчик диалога,
// транспорт Telegram и планировщик напоминаний.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/birthday-bot/internal/bot"
	"serotonyl.ru/birthday-bot/internal/common"
	"serotonyl.ru/birthday-bot/internal/config"
	"serotonyl.ru/birthday-bot/internal/db/postgres"
	"serotonyl.ru/birthday-bot/internal/db/sqlite"
	"serotonyl.ru/birthday-bot/internal/features/birthdays"
	"serotonyl.ru/birthday-bot/internal/features/reminders"
	"serotonyl.ru/birthday-bot/internal/jobs"
)

// интервал очистки брошенных диалогов
const sessionCleanupSpec = "@every 10m"

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	BotAPI    *tgbotapi.BotAPI
	Reminders *reminders.Service

	storage *Storage
}

// Storage - выбранное хранилище: записи о днях рождения и журнал рассылок.
type Storage struct {
	Birthdays birthdays.Store
	SentLog   reminders.Log
	Close     func()
}

// OpenStorage подключает хранилище по STORE_DRIVER и применяет миграции.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
		return &Storage{
			Birthdays: birthdays.NewPostgresRepository(pool),
			SentLog:   reminders.NewPostgresLog(pool),
			Close:     pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия SQLite: %w", err)
		}
		return &Storage{
			Birthdays: birthdays.NewSQLiteRepository(db),
			SentLog:   reminders.NewSQLiteLog(db),
			Close: func() {
				if err := db.Close(); err != nil {
					log.WithError(err).Warn("Ошибка закрытия SQLite")
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownDriver, cfg.StoreDriver)
	}
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен - компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище ===
	storage, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.WithField("driver", cfg.StoreDriver).Info("Хранилище подключено")

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	a := Build(cfg, botAPI, storage, clock.New())
	return a, nil
}

// Build собирает сервисы, бота и планировщик поверх готовых хранилища и API.
func Build(cfg *config.Config, api bot.API, storage *Storage, clk clock.Clock) *App {
	loc := common.LoadLocation(cfg.AppTimezone)

	// === 3. Сервисы ===
	birthdayService := birthdays.NewService(storage.Birthdays, clk, loc)
	sessions := birthdays.NewSessionStore(cfg.SessionTTL, clk)

	// === 4. Обработчики и бот ===
	handler := birthdays.NewHandler(birthdayService, sessions, birthdays.HandlerOptions{
		ExportEnabled: cfg.FeatureExportEnabled,
		ImportEnabled: cfg.FeatureImportEnabled,
	})
	b := bot.New(api, cfg, handler, clk)

	// === 5. Напоминания и планировщик ===
	congrats := reminders.NewCongratulator(rand.NewSource(time.Now().UnixNano()))
	reminderService := reminders.NewService(birthdayService, storage.SentLog, b, congrats, cfg.NotifyOffsets)

	scheduler := jobs.NewScheduler(reminderService, cfg.NotifyHour, cfg.NotifyMinute, loc, cfg.ShutdownTimeout)
	scheduler.AddTask(sessionCleanupSpec, "session_cleanup", func(context.Context) {
		if n := sessions.Cleanup(); n > 0 {
			log.WithField("removed", n).Debug("[CRON] Очищены неактивные диалоги")
		}
	})

	a := &App{
		Bot:       b,
		Scheduler: scheduler,
		Reminders: reminderService,
		storage:   storage,
	}
	if botAPI, ok := api.(*tgbotapi.BotAPI); ok {
		a.BotAPI = botAPI
	}
	return a
}

// Close освобождает хранилище.
func (a *App) Close() {
	if a.storage != nil && a.storage.Close != nil {
		a.storage.Close()
	}
}
