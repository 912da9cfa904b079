package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Темы подписки.
const (
	TopicUpdates   = "updates"
	TopicAnalytics = "analytics"
	TopicActivity  = "activity"
)

// События, которые отправляет сервер в ответ на сообщения клиента.
const (
	EventSubscriptionConfirmed = "subscriptionConfirmed"
	EventInitialData           = "initialData"
	EventError                 = "error"
)

// Действия клиента.
const (
	ActionSubscribe          = "subscribe"
	ActionUnsubscribe        = "unsubscribe"
	ActionRequestInitialData = "requestInitialData"
)

// legacyActions — действия подписки старых клиентов и соответствующие темы.
var legacyActions = map[string]string{
	"subscribeToUpdates":   TopicUpdates,
	"subscribeToAnalytics": TopicAnalytics,
	"subscribeToActivity":  TopicActivity,
}

// ValidTopic сообщает, существует ли тема.
func ValidTopic(topic string) bool {
	switch topic {
	case TopicUpdates, TopicAnalytics, TopicActivity:
		return true
	}
	return false
}

// clientMessage — сообщение от клиента.
type clientMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic,omitempty"`
}

// subscriptionAck — подтверждение изменения подписки.
type subscriptionAck struct {
	Topic      string `json:"topic"`
	Subscribed bool   `json:"subscribed"`
	Message    string `json:"message"`
}

// client — одно WebSocket-подключение.
type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	topics map[string]bool
}

func newClient(h *Hub, conn *websocket.Conn) *client {
	return &client{
		id:     newClientID(),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		topics: make(map[string]bool),
	}
}

func (c *client) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

func (c *client) setTopic(topic string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.topics[topic] = true
	} else {
		delete(c.topics, topic)
	}
}

// readPump читает сообщения клиента до разрыва соединения.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				c.hub.logger.Debug("Чтение WebSocket прервано",
					slog.String("client_id", c.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		c.handle(ctx, msg)
	}
}

// handle обрабатывает одно сообщение клиента.
func (c *client) handle(ctx context.Context, msg clientMessage) {
	action, topic := msg.Action, msg.Topic
	if legacy, ok := legacyActions[action]; ok {
		action, topic = ActionSubscribe, legacy
	}

	switch action {
	case ActionSubscribe, ActionUnsubscribe:
		if !ValidTopic(topic) {
			c.hub.sendTo(c, EventError, map[string]string{"message": "неизвестная тема: " + topic})
			return
		}
		on := action == ActionSubscribe
		c.setTopic(topic, on)

		text := "Подписка на " + topic + " оформлена"
		if !on {
			text = "Подписка на " + topic + " отменена"
		}
		c.hub.sendTo(c, EventSubscriptionConfirmed, subscriptionAck{Topic: topic, Subscribed: on, Message: text})

	case ActionRequestInitialData:
		c.hub.sendTo(c, EventInitialData, c.hub.initialData(ctx))

	default:
		c.hub.sendTo(c, EventError, map[string]string{"message": "неизвестное действие: " + msg.Action})
	}
}

// writePump отправляет сообщения из очереди и ping до закрытия очереди.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
