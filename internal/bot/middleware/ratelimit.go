package middleware

import (
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

// RateLimiter ограничивает количество сообщений от одного чата.
// Использует алгоритм скользящего окна.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
	clock    clock.Clock

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter создаёт ограничитель: не больше limit сообщений за window.
// limit <= 0 отключает ограничение.
func NewRateLimiter(limit int, window time.Duration, clk clock.Clock) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
		clock:    clk,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanup будет жить вечно).
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow сообщает, можно ли обработать ещё одно сообщение чата.
func (rl *RateLimiter) Allow(chatID int64) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	recent := rl.recent(rl.requests[chatID], now)

	if len(recent) >= rl.limit {
		rl.requests[chatID] = recent
		return false
	}

	rl.requests[chatID] = append(recent, now)
	return true
}

// Cleanup удаляет чаты без сообщений в текущем окне.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for chatID, times := range rl.requests {
		recent := rl.recent(times, now)
		if len(recent) == 0 {
			delete(rl.requests, chatID)
		} else {
			rl.requests[chatID] = recent
		}
	}
}

// Tracked возвращает количество отслеживаемых чатов.
func (rl *RateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

func (rl *RateLimiter) recent(times []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	var out []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}
