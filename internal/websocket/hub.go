// Package websocket рассылает записи журнала активности подключённым
// дашбордам в реальном времени.
package websocket

import (
	"sync"

	jsoniter "github.com/json-iterator/go"

	"treasury/internal/service"
	"treasury/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ActivityMessage - кадр, отправляемый дашборду при новой записи журнала
type ActivityMessage struct {
	Type string                `json:"type"`
	Data service.ActivityEntry `json:"data"`
}

// Hub управляет активными WebSocket соединениями дашбордов
//
// Назначение:
// Централизует рассылку записей журнала активности всем подключённым
// клиентам, чтобы frontend не опрашивал /api/account/activity.
// Реализует service.ActivityBroadcaster.
//
// Использование:
// 1. hub := NewHub()
// 2. go hub.Run()
// 3. activityLog.SetBroadcaster(hub)
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *utils.Logger
}

// NewHub создает новый Hub
func NewHub(logger *utils.Logger) *Hub {
	if logger == nil {
		logger = utils.L()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.WithComponent("websocket"),
	}
}

// Run запускает главный цикл Hub.
// Должен запускаться в отдельной горутине: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", utils.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", utils.Int("total", total))

		case message := <-h.broadcast:
			// Список копируется под коротким RLock, отправка идёт без
			// блокировки, медленные клиенты удаляются под Write Lock
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				h.logger.Warn("removed slow clients", utils.Int("removed", len(toRemove)))
			}
		}
	}
}

// BroadcastActivity отправляет запись журнала всем клиентам.
// Реализация service.ActivityBroadcaster.
func (h *Hub) BroadcastActivity(entry service.ActivityEntry) {
	data, err := json.Marshal(ActivityMessage{
		Type: "activity",
		Data: entry,
	})
	if err != nil {
		h.logger.Error("failed to marshal activity message", utils.Err(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		// Переполненный канал рассылки не должен блокировать запись
		// в журнал активности
		h.logger.Warn("broadcast channel full, dropping activity message")
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
