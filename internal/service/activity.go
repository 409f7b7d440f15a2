package service

import (
	"fmt"
	"sync"
	"time"
)

// Статусы записей журнала активности
const (
	ActivitySuccess = "success"
	ActivityError   = "error"
	ActivityPending = "pending"
)

// maxActivityEntries - ёмкость in-memory журнала
const maxActivityEntries = 50

// ActivityEntry - запись журнала действий дашборда
type ActivityEntry struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"`
}

// ActivityBroadcaster рассылает записи журнала подключённым дашбордам
// (реализуется WebSocket hub'ом)
type ActivityBroadcaster interface {
	BroadcastActivity(entry ActivityEntry)
}

// ActivityLog - ограниченный in-memory журнал последних действий.
// Не персистентен: рестарт процесса очищает журнал (дашборд не ведёт
// долговременную историю операций).
type ActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
	seq     int64

	broadcaster ActivityBroadcaster

	now func() time.Time
}

// NewActivityLog создаёт пустой журнал активности
func NewActivityLog() *ActivityLog {
	return &ActivityLog{now: time.Now}
}

// SetBroadcaster подключает рассылку записей в реальном времени.
// Вызывается после инициализации hub'а в main.
func (l *ActivityLog) SetBroadcaster(b ActivityBroadcaster) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.broadcaster = b
}

// Log добавляет запись, вытесняя самую старую при переполнении
func (l *ActivityLog) Log(action, status string) {
	l.mu.Lock()
	l.seq++
	entry := ActivityEntry{
		ID:        fmt.Sprintf("activity_%d_%d", l.now().UnixMilli(), l.seq),
		Action:    action,
		Timestamp: l.now().UnixMilli(),
		Status:    status,
	}
	l.entries = append(l.entries, entry)
	if len(l.entries) > maxActivityEntries {
		l.entries = l.entries[len(l.entries)-maxActivityEntries:]
	}
	broadcaster := l.broadcaster
	l.mu.Unlock()

	if broadcaster != nil {
		broadcaster.BroadcastActivity(entry)
	}
}

// Recent возвращает записи от новых к старым
func (l *ActivityLog) Recent() []ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]ActivityEntry, len(l.entries))
	for i, e := range l.entries {
		result[len(l.entries)-1-i] = e
	}
	return result
}
