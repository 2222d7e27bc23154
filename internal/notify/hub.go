// Package notify delivers payment events to tenants: a websocket hub keyed
// by tenant, an optional FCM topic publisher and best-effort e-mail.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"tenant-portal-backend/internal/domain"
	"tenant-portal-backend/internal/logger"
)

// Publisher delivers an event to every channel a tenant listens on.
type Publisher interface {
	Publish(ctx context.Context, tenantID int32, event domain.PaymentEvent) error
}

// Conn is one live push connection.
type Conn interface {
	Write(ctx context.Context, v any) error
	Close() error
}

// Client messages accepted on the push channel.
const (
	MessageRegisterTenant = "registerTenant"
	MessagePing           = "ping"
	MessagePong           = "pong"
	MessageRegistered     = "registered"
)

type ClientMessage struct {
	Type string `json:"type"`
}

type ServerMessage struct {
	Type     string `json:"type"`
	TenantID int32  `json:"tenantId,omitempty"`
}

// Hub maps tenants to their open connections.
type Hub struct {
	mu           sync.Mutex
	byTenant     map[int32]map[string]Conn
	tenantOf     map[string]int32
	writeTimeout time.Duration
}

func NewHub(writeTimeout time.Duration) *Hub {
	return &Hub{
		byTenant:     make(map[int32]map[string]Conn),
		tenantOf:     make(map[string]int32),
		writeTimeout: writeTimeout,
	}
}

// Register associates a connection with a tenant's channel. Registering the
// same connection again moves it to the new tenant.
func (h *Hub) Register(tenantID int32, connID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.tenantOf[connID]; ok && prev != tenantID {
		h.removeLocked(prev, connID)
	}
	conns, ok := h.byTenant[tenantID]
	if !ok {
		conns = make(map[string]Conn)
		h.byTenant[tenantID] = conns
	}
	conns[connID] = c
	h.tenantOf[connID] = tenantID
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if tenantID, ok := h.tenantOf[connID]; ok {
		h.removeLocked(tenantID, connID)
	}
}

func (h *Hub) removeLocked(tenantID int32, connID string) {
	delete(h.tenantOf, connID)
	if conns, ok := h.byTenant[tenantID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.byTenant, tenantID)
		}
	}
}

// Connections reports how many connections listen for a tenant.
func (h *Hub) Connections(tenantID int32) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byTenant[tenantID])
}

// Publish writes the event to the tenant's connections only. With no
// connection the event is dropped. A connection that fails a write is closed
// and removed, and the returned error wraps domain.ErrDelivery.
func (h *Hub) Publish(ctx context.Context, tenantID int32, event domain.PaymentEvent) error {
	h.mu.Lock()
	targets := make(map[string]Conn, len(h.byTenant[tenantID]))
	for id, c := range h.byTenant[tenantID] {
		targets[id] = c
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		logger.Debug("No push connection for tenant, event dropped", "tenantID", tenantID, "type", event.Type)
		return nil
	}

	var errs []error
	for id, c := range targets {
		wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
		err := c.Write(wctx, event)
		cancel()
		if err != nil {
			logger.Warn("Push write failed, dropping connection", "tenantID", tenantID, "connID", id, "error", err)
			h.Unregister(id)
			_ = c.Close()
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrDelivery, errors.Join(errs...))
	}
	return nil
}

// Serve runs the read loop of an accepted websocket for an authenticated
// principal until the peer goes away or ctx ends. The channel joined on
// registerTenant is always the principal's own.
func (h *Hub) Serve(ctx context.Context, principal domain.Principal, ws *websocket.Conn) {
	connID := uuid.NewString()
	c := &wsConn{ws: ws}
	defer func() {
		h.Unregister(connID)
		ws.CloseNow()
	}()

	log := logger.WithComponent("push").With("connID", connID, "userID", principal.UserID)
	log.Info("Push connection opened")

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Info("Push connection closed", "status", websocket.CloseStatus(err))
			} else if ctx.Err() == nil {
				log.Debug("Push read ended", "error", err)
			}
			return
		}

		switch msg.Type {
		case MessageRegisterTenant:
			h.Register(principal.UserID, connID, c)
			h.reply(ctx, c, ServerMessage{Type: MessageRegistered, TenantID: principal.UserID})
		case MessagePing:
			h.reply(ctx, c, ServerMessage{Type: MessagePong})
		default:
			log.Debug("Ignoring unknown push message", "type", msg.Type)
		}
	}
}

func (h *Hub) reply(ctx context.Context, c Conn, msg ServerMessage) {
	wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	if err := c.Write(wctx, msg); err != nil {
		logger.Debug("Push reply failed", "type", msg.Type, "error", err)
	}
}

// wsConn serialises writes to one websocket.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) Write(ctx context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsjson.Write(ctx, c.ws, v)
}

func (c *wsConn) Close() error {
	return c.ws.CloseNow()
}
