// Пакет notify — push-уведомления клиентов дашборда через WebSocket.
//
// Клиент подписывается на темы (updates, analytics, activity) и получает
// события только своих тем; Broadcast отправляет событие всем клиентам.
// У каждого клиента собственная буферизованная очередь отправки: публикация
// не блокирует вызывающего, а клиент с переполненной очередью отключается.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// sendQueueSize — размер очереди отправки одного клиента
	sendQueueSize = 64
	// writeWait — таймаут записи одного сообщения
	writeWait = 10 * time.Second
	// pongWait — максимальное время ожидания pong от клиента
	pongWait = 60 * time.Second
	// pingPeriod — период отправки ping (меньше pongWait)
	pingPeriod = pongWait * 9 / 10
	// maxMessageSize — максимальный размер входящего сообщения
	maxMessageSize = 4096
)

// Prometheus метрики push-канала
var (
	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dm_ws_clients",
		Help: "Количество подключённых WebSocket-клиентов",
	})

	wsEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dm_ws_events_total",
		Help: "Общее количество отправленных push-событий",
	}, []string{"event"})

	wsDroppedClientsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dm_ws_dropped_clients_total",
		Help: "Количество клиентов, отключённых из-за переполнения очереди отправки",
	})
)

// Envelope — формат события для клиента.
type Envelope struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// InitialDataFunc возвращает начальные данные для нового клиента
// (ответ на requestInitialData).
type InitialDataFunc func(ctx context.Context) any

// Hub — реестр подключённых клиентов и их подписок.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	initial InitialDataFunc
	now     func() time.Time
}

// NewHub создаёт реестр клиентов.
// allowedOrigins — допустимые значения заголовка Origin; пустой список — любой Origin.
func NewHub(allowedOrigins []string, logger *slog.Logger) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger.With(slog.String("component", "notify")),
		now:     time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// SetInitialData задаёт источник начальных данных.
func (h *Hub) SetInitialData(fn InitialDataFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initial = fn
}

// originChecker проверяет Origin по списку. Запросы без Origin (не из браузера) допускаются.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// ServeHTTP принимает WebSocket-подключение и обслуживает его до отключения клиента.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		h.logger.Warn("Ошибка WebSocket upgrade",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}

	c := newClient(h, conn)
	h.register(c)

	go c.writePump()
	c.readPump(r.Context())
}

// Publish отправляет событие подписчикам темы.
func (h *Hub) Publish(topic, event string, data any) {
	h.dispatch(event, data, func(c *client) bool { return c.subscribed(topic) })
}

// Broadcast отправляет событие всем клиентам.
func (h *Hub) Broadcast(event string, data any) {
	h.dispatch(event, data, func(*client) bool { return true })
}

// ClientCount возвращает количество подключённых клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close отключает всех клиентов.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
	h.logger.Info("Все WebSocket-клиенты отключены", slog.Int("count", len(clients)))
}

// dispatch сериализует событие один раз и ставит его в очереди отобранных клиентов.
// Клиенты с переполненной очередью отключаются.
func (h *Hub) dispatch(event string, data any, match func(*client) bool) {
	msg, err := h.encode(event, data)
	if err != nil {
		h.logger.Error("Ошибка сериализации push-события",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	wsEventsTotal.WithLabelValues(event).Inc()

	for _, c := range slow {
		wsDroppedClientsTotal.Inc()
		h.logger.Warn("Клиент не успевает получать события, отключение",
			slog.String("client_id", c.id),
		)
		h.unregister(c)
	}
}

// sendTo ставит событие в очередь одного клиента.
func (h *Hub) sendTo(c *client, event string, data any) {
	msg, err := h.encode(event, data)
	if err != nil {
		h.logger.Error("Ошибка сериализации push-события",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	h.mu.RLock()
	_, ok := h.clients[c]
	dropped := false
	if ok {
		select {
		case c.send <- msg:
		default:
			dropped = true
		}
	}
	h.mu.RUnlock()

	if dropped {
		wsDroppedClientsTotal.Inc()
		h.unregister(c)
	}
}

func (h *Hub) encode(event string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Timestamp: h.now().UTC(), Data: data})
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	wsClients.Inc()
	h.logger.Debug("WebSocket-клиент подключён",
		slog.String("client_id", c.id),
		slog.Int("clients", n),
	)
}

// unregister удаляет клиента и закрывает его очередь. Повторный вызов безопасен.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		wsClients.Dec()
		h.logger.Debug("WebSocket-клиент отключён", slog.String("client_id", c.id))
	}
}

func (h *Hub) initialData(ctx context.Context) any {
	h.mu.RLock()
	fn := h.initial
	h.mu.RUnlock()
	if fn == nil {
		return map[string]any{"files": []any{}, "activities": []any{}}
	}
	return fn(ctx)
}

// newClientID возвращает идентификатор клиента для логов.
func newClientID() string {
	return uuid.NewString()
}
