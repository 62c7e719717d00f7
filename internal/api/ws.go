package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/config"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/stats"
	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/util"
)

const (
	defaultPushPeriod = 10 * time.Second
	wsWriteTimeout    = 5 * time.Second
)

// wsEvent is the envelope pushed to websocket subscribers.
type wsEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// wsHub pushes the current-work view to websocket subscribers on a
// fixed period.
type wsHub struct {
	svc      *stats.Service
	period   time.Duration
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

func newWSHub(cfg *config.Config, svc *stats.Service) *wsHub {
	period := cfg.API.WSPushPeriod
	if period <= 0 {
		period = defaultPushPeriod
	}

	origins := cfg.API.CORSOrigins
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}

	return &wsHub{
		svc:    svc,
		period: period,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, o := range origins {
					if o == origin {
						return true
					}
				}
				return false
			},
		},
		conns: make(map[*websocket.Conn]struct{}),
		done:  make(chan struct{}),
	}
}

func (h *wsHub) start() {
	h.wg.Add(1)
	go h.pushLoop()
}

func (h *wsHub) stop() {
	close(h.done)
	h.wg.Wait()

	h.mu.Lock()
	for conn := range h.conns {
		conn.Close()
	}
	h.conns = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
}

func (h *wsHub) handleConnect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		util.Warnf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Push the current view right away instead of making the client
	// wait a full period.
	if cur, err := h.svc.Current(c.Request.Context()); err == nil {
		h.send(conn, wsEvent{Event: "stats_current", Data: cur})
	}

	// Inbound messages are ignored, the read loop only detects closes.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

func (h *wsHub) pushLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.period)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.broadcast()
		}
	}
}

func (h *wsHub) broadcast() {
	h.mu.Lock()
	if len(h.conns) == 0 {
		h.mu.Unlock()
		return
	}
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	cur, err := h.svc.Current(ctx)
	cancel()
	if err != nil {
		util.Debugf("websocket push skipped: %v", err)
		return
	}

	event := wsEvent{Event: "stats_current", Data: cur}
	for _, conn := range conns {
		h.send(conn, event)
	}
}

func (h *wsHub) send(conn *websocket.Conn, event wsEvent) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(event); err != nil {
		h.drop(conn)
	}
}

func (h *wsHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}
