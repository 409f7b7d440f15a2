package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow - rate limiter по скользящему окну для дозирования
// чувствительных действий (вывод средств) по идентификатору клиента.
//
// Алгоритм Sliding Window:
// - Для каждого идентификатора хранится список timestamp'ов попыток
// - При проверке отбрасываются попытки старше trailing окна (lazy prune)
// - Попытка допускается только если после очистки счётчик < maxAttempts
// - Отклонённая попытка НЕ записывается и не расходует квоту
//
// Проверка и запись выполняются атомарно под одним мьютексом: две
// конкурентные попытки с одного идентификатора не могут обе пройти
// лимит "1 за окно".
//
// Лимитер чисто in-memory: рестарт процесса сбрасывает все счётчики.
// Идентификаторы никогда не вытесняются - допустимо для low-traffic
// админского инструмента, где кардинальность IP адресов мала.
//
// Использование:
//
//	limiter := ratelimit.NewSlidingWindow()
//	if limiter.Allow(clientIP, 1, time.Minute) { ... }
type SlidingWindow struct {
	mu       sync.Mutex
	attempts map[string][]time.Time

	// now подменяется в тестах для контроля времени
	now func() time.Time
}

// NewSlidingWindow создаёт новый лимитер со скользящим окном
func NewSlidingWindow() *SlidingWindow {
	return &SlidingWindow{
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow проверяет, допустима ли попытка для идентификатора, и при допуске
// сразу записывает её (атомарный check-and-increment).
//
// Возвращает:
//   - true: попытка записана, действие можно выполнять
//   - false: квота исчерпана, действие нужно отклонить (попытка не записана)
func (sw *SlidingWindow) Allow(identifier string, maxAttempts int, window time.Duration) bool {
	if maxAttempts <= 0 {
		return false
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	cutoff := now.Add(-window)

	// Отбрасываем попытки, вышедшие из окна
	recent := sw.attempts[identifier][:0]
	for _, ts := range sw.attempts[identifier] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= maxAttempts {
		sw.attempts[identifier] = recent
		return false
	}

	sw.attempts[identifier] = append(recent, now)
	return true
}

// Reset немедленно сбрасывает счётчик попыток для идентификатора
func (sw *SlidingWindow) Reset(identifier string) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	delete(sw.attempts, identifier)
}

// Remaining возвращает количество оставшихся попыток в текущем окне.
// Не записывает попытку - только для диагностики и UI.
func (sw *SlidingWindow) Remaining(identifier string, maxAttempts int, window time.Duration) int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	cutoff := sw.now().Add(-window)
	used := 0
	for _, ts := range sw.attempts[identifier] {
		if ts.After(cutoff) {
			used++
		}
	}

	remaining := maxAttempts - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
