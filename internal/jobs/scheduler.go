// Package jobs управляет фоновыми задачами (cron).
// scheduler.go раз в сутки в заданное время запускает рассылку напоминаний.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/birthday-bot/internal/features/reminders"
)

// Runner - задача, которую запускает планировщик.
type Runner interface {
	Run(ctx context.Context) (reminders.Stats, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	spec    string
	loc     *time.Location
	timeout time.Duration

	tasks []task
	entry cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
}

// task - дополнительная периодическая задача (обслуживание).
type task struct {
	spec string
	name string
	fn   func(ctx context.Context)
}

// DailySpec строит cron-выражение "ММ ЧЧ * * *".
func DailySpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// NewScheduler создаёт планировщик. Запуск, который ещё идёт, не пересекается
// со следующим: cron пропустит очередной запуск.
// stopTimeout - сколько Stop ждёт завершения текущей рассылки.
func NewScheduler(runner Runner, hour, minute int, loc *time.Location, stopTimeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	cronLogger := cron.VerbosePrintfLogger(log.StandardLogger())
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:    c,
		runner:  runner,
		spec:    DailySpec(hour, minute),
		loc:     loc,
		timeout: stopTimeout,
	}
}

// AddTask добавляет периодическую задачу. Вызывать до Start.
func (s *Scheduler) AddTask(spec, name string, fn func(ctx context.Context)) {
	s.tasks = append(s.tasks, task{spec: spec, name: name, fn: fn})
}

// Start регистрирует задачи и запускает планировщик.
// Отмена ctx не прерывает идущую рассылку: её останавливает только Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	id, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(s.ctx) })
	if err != nil {
		s.cancel()
		return fmt.Errorf("ошибка регистрации задачи %q: %w", s.spec, err)
	}
	s.entry = id

	for _, t := range s.tasks {
		t := t
		if _, err := s.cron.AddFunc(t.spec, func() {
			log.WithField("task", t.name).Debug("[CRON] Запуск задачи")
			t.fn(s.ctx)
		}); err != nil {
			s.cancel()
			return fmt.Errorf("ошибка регистрации задачи %s (%q): %w", t.name, t.spec, err)
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"spec":     s.spec,
		"timezone": s.loc.String(),
		"next":     s.Next().Format(time.RFC3339),
	}).Info("Планировщик задач запущен")
	return nil
}

// RunOnce выполняет одну рассылку напоминаний.
func (s *Scheduler) RunOnce(ctx context.Context) {
	log.Info("[CRON] Рассылка напоминаний о днях рождения")
	started := time.Now()
	if _, err := s.runner.Run(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка рассылки напоминаний")
		return
	}
	log.WithField("took", time.Since(started).String()).Debug("[CRON] Рассылка закончена")
}

// Next возвращает время следующей рассылки (нулевое, если планировщик не запущен).
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Stop останавливает планировщик и ждёт текущую рассылку не дольше timeout.
// Возвращает false, если рассылка не успела завершиться.
func (s *Scheduler) Stop() bool {
	done := s.cron.Stop().Done()

	stopped := true
	select {
	case <-done:
	case <-time.After(s.timeout):
		stopped = false
	}

	// незавершённая рассылка прерывается через контекст
	if s.cancel != nil {
		s.cancel()
	}
	if stopped {
		log.Info("Планировщик задач остановлен")
		return true
	}
	log.WithField("timeout", s.timeout.String()).Warn("Планировщик остановлен принудительно")
	return false
}
