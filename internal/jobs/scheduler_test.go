package jobs

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/birthday-bot/internal/db/sqlite"
	"serotonyl.ru/birthday-bot/internal/features/birthdays"
	"serotonyl.ru/birthday-bot/internal/features/reminders"
	"serotonyl.ru/birthday-bot/internal/gateway"
)

type countingRunner struct {
	calls atomic.Int32
	block bool
}

func (r *countingRunner) Run(ctx context.Context) (reminders.Stats, error) {
	r.calls.Add(1)
	if r.block {
		<-ctx.Done()
		return reminders.Stats{}, ctx.Err()
	}
	return reminders.Stats{Sent: 1}, nil
}

func TestDailySpec(t *testing.T) {
	assert.Equal(t, "0 9 * * *", DailySpec(9, 0))
	assert.Equal(t, "25 21 * * *", DailySpec(21, 25))
}

func TestScheduler_NextRunInLocation(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	s := NewScheduler(&countingRunner{}, 9, 0, msk, time.Second)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	next := s.Next().In(msk)
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
	assert.True(t, next.Before(time.Now().Add(24*time.Hour+time.Minute)))
}

func TestScheduler_RunOnce(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, 9, 0, time.UTC, time.Second)
	s.RunOnce(context.Background())
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestScheduler_StopIsBounded(t *testing.T) {
	r := &countingRunner{block: true}
	s := NewScheduler(r, 9, 0, time.UTC, 100*time.Millisecond)
	require.NoError(t, s.Start(context.Background()))

	// отдельная частая задача с той же цепочкой, чтобы не ждать 9:00
	_, err := s.cron.AddJob("@every 1s", cron.FuncJob(func() { s.RunOnce(s.ctx) }))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 10*time.Millisecond)

	started := time.Now()
	assert.False(t, s.Stop())
	assert.Less(t, time.Since(started), time.Second)

	// после отмены контекста следующие запуски не начинаются
	calls := r.calls.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, calls, r.calls.Load())
}

// slowSender отправляет медленно и, как настоящий бот, бросает отправку при отмене ctx.
type slowSender struct {
	delay time.Duration

	mu   sync.Mutex
	sent []int64
}

func (s *slowSender) Send(ctx context.Context, chatID int64, _ gateway.Reply) error {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	s.sent = append(s.sent, chatID)
	s.mu.Unlock()
	return nil
}

func (s *slowSender) chats() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.sent...)
}

func TestScheduler_ParentCancelDoesNotInterruptRun(t *testing.T) {
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	today := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	fc := clock.NewFake()
	fc.Set(today)

	bs := birthdays.NewService(birthdays.NewSQLiteRepository(db), fc, time.UTC)
	chatIDs := []int64{1, 2, 3, 4}
	for _, chatID := range chatIDs {
		_, err := bs.Add(context.Background(), chatID, "Иванов", "Иван", nil,
			time.Date(1990, time.October, 19, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
	}

	sentLog := reminders.NewSQLiteLog(db)
	sender := &slowSender{delay: 150 * time.Millisecond}
	svc := reminders.NewService(bs, sentLog, sender, reminders.NewCongratulator(rand.NewSource(1)), []int{0})

	s := NewScheduler(svc, 9, 0, time.UTC, 10*time.Second)
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(parent))

	_, err = s.cron.AddJob("@every 1s", cron.FuncJob(func() { s.RunOnce(s.ctx) }))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sender.chats()) > 0 }, 3*time.Second, 5*time.Millisecond)

	// сигнал остановки приходит посреди рассылки
	cancel()
	assert.True(t, s.Stop())

	assert.ElementsMatch(t, chatIDs, sender.chats())
	for _, chatID := range chatIDs {
		ok, err := sentLog.WasSent(context.Background(), chatID, today, 0)
		require.NoError(t, err)
		assert.True(t, ok, "chat %d", chatID)
	}
}

func TestScheduler_StopWhenIdle(t *testing.T) {
	s := NewScheduler(&countingRunner{}, 9, 0, time.UTC, time.Second)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Stop())
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(&countingRunner{}, 25, 0, time.UTC, time.Second)
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_AddTask(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(&countingRunner{}, 9, 0, time.UTC, time.Second)
	s.AddTask("@every 1s", "test", func(context.Context) { runs.Add(1) })
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestScheduler_AddTaskInvalidSpec(t *testing.T) {
	s := NewScheduler(&countingRunner{}, 9, 0, time.UTC, time.Second)
	s.AddTask("не cron", "broken", func(context.Context) {})
	assert.Error(t, s.Start(context.Background()))
}
