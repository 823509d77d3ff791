package service

import (
	"context"
	"encoding/json"
	"fmt"
	"fst_cloud_backend/internal/model"
	"fst_cloud_backend/internal/util"
	"fst_cloud_backend/pkg/logger"
	"fst_cloud_backend/pkg/monitoring"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	EventPdfUploaded      = "pdf_uploaded"
	EventPdfStatusChanged = "pdf_status_changed"
)

// DocumentEvent is published on every upload and status change and fanned
// out per recipient by BuildNotification.
type DocumentEvent struct {
	Event     string          `json:"event"`
	PdfID     string          `json:"pdfId"`
	Name      string          `json:"name"`
	OwnerID   string          `json:"ownerId"`
	Status    model.PdfStatus `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Notification is what a websocket client receives.
type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	PdfID     string          `json:"pdfId"`
	Name      string          `json:"name"`
	Status    model.PdfStatus `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// BuildNotification decides what, if anything, recipient sees for ev.
// Admins see every upload; an owner sees their own uploads and the status
// changes of their documents; nobody else sees anything.
func BuildNotification(ev DocumentEvent, recipientID string, recipientIsAdmin bool) (*Notification, bool) {
	var msg string
	switch ev.Event {
	case EventPdfUploaded:
		switch {
		case recipientIsAdmin:
			msg = fmt.Sprintf("New PDF uploaded: %s (pending approval)", ev.Name)
		case recipientID != "" && recipientID == ev.OwnerID:
			msg = fmt.Sprintf("Your PDF %q was uploaded and is pending approval", ev.Name)
		default:
			return nil, false
		}
	case EventPdfStatusChanged:
		if recipientID == "" || recipientID != ev.OwnerID {
			return nil, false
		}
		msg = fmt.Sprintf("Your PDF %q was %s", ev.Name, ev.Status)
	default:
		return nil, false
	}

	return &Notification{
		ID:        uuid.New().String(),
		Type:      ev.Event,
		Message:   msg,
		PdfID:     ev.PdfID,
		Name:      ev.Name,
		Status:    ev.Status,
		CreatedAt: ev.CreatedAt,
	}, true
}

type NotificationClient struct {
	hub     *NotificationHub
	conn    *websocket.Conn
	send    chan []byte
	UserID  string
	IsAdmin bool
}

// readPump only keeps the connection alive; clients never send anything
// meaningful.
func (c *NotificationClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Debug("Notification socket closed", zap.Error(err), zap.String("userId", c.UserID))
			}
			return
		}
	}
}

func (c *NotificationClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// NotificationHub tracks this instance's websocket clients (several per
// user when they have more than one tab open) and delivers document
// events to them. With Redis configured, events travel through a pub/sub
// channel so every instance delivers to its own clients.
type NotificationHub struct {
	mu      sync.RWMutex
	clients map[string]map[*NotificationClient]struct{}
	closed  bool

	Redis  *redis.Client
	ctx    context.Context
	cancel context.CancelFunc
}

func NewNotificationHub(rdb *redis.Client) *NotificationHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationHub{
		clients: make(map[string]map[*NotificationClient]struct{}),
		Redis:   rdb,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run relays events from the Redis channel to local clients until Stop.
// Without Redis it returns immediately.
func (h *NotificationHub) Run() {
	if h.Redis == nil {
		return
	}
	pubsub := h.Redis.Subscribe(h.ctx, util.NotificationChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev DocumentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Log.Error("PubSub unmarshal error", zap.Error(err))
				continue
			}
			h.dispatch(ev)
		}
	}
}

// Publish announces ev to every instance, or to local clients only when
// Redis is not configured.
func (h *NotificationHub) Publish(ctx context.Context, ev DocumentEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	if h.Redis == nil {
		h.dispatch(ev)
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.Redis.Publish(ctx, util.NotificationChannel, payload).Err()
}

func (h *NotificationHub) dispatch(ev DocumentEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, set := range h.clients {
		for c := range set {
			n, ok := BuildNotification(ev, userID, c.IsAdmin)
			if !ok {
				continue
			}
			payload, err := json.Marshal(n)
			if err != nil {
				continue
			}
			select {
			case c.send <- payload:
				monitoring.NotificationsSent.WithLabelValues(ev.Event).Inc()
			default:
				logger.Log.Warn("Notification dropped, client too slow", zap.String("userId", userID))
			}
		}
	}
}

func (h *NotificationHub) add(c *NotificationClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*NotificationClient]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	monitoring.NotificationClients.Inc()
	return true
}

func (h *NotificationHub) remove(c *NotificationClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.send)
	monitoring.NotificationClients.Dec()
}

// ClientCount is the number of open connections on this instance.
func (h *NotificationHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Stop closes every connection and the Redis subscription.
func (h *NotificationHub) Stop() {
	h.cancel()

	h.mu.Lock()
	count := 0
	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
			count++
		}
		delete(h.clients, userID)
	}
	h.closed = true
	h.mu.Unlock()

	monitoring.NotificationClients.Set(0)
	logger.Log.Info("Notification hub stopped", zap.Int("closedConnections", count))
}

func ServeNotifications(hub *NotificationHub, w http.ResponseWriter, r *http.Request, userID string, isAdmin bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("userId", userID))
		return
	}
	client := &NotificationClient{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		UserID:  userID,
		IsAdmin: isAdmin,
	}
	if !hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
