package capture

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/logging"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Records buffered per client before it is considered too slow
	clientQueue = 64
)

// Live streams observations to WebSocket clients as JSON records, one text
// message per record. Clients that fall behind are disconnected.
type Live struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*liveClient]struct{}
	num     int
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewLive creates an empty live feed.
func NewLive() *Live {
	return &Live{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*liveClient]struct{}),
	}
}

// Clients returns the number of connected clients.
func (l *Live) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Publish sends the record of obs to every connected client.
func (l *Live) Publish(obs *connect.Observation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.num++
	data, err := json.Marshal(NewRecord(l.num, obs))
	if err != nil {
		logging.Error("Failed to marshal live record", zap.Error(err))
		return
	}
	for c := range l.clients {
		select {
		case c.send <- data:
		default:
			logging.Warn("Dropping slow live client", zap.String("remote_addr", c.conn.RemoteAddr().String()))
			l.remove(c)
		}
	}
}

// remove unregisters c. The caller holds l.mu.
func (l *Live) remove(c *liveClient) {
	if _, ok := l.clients[c]; ok {
		delete(l.clients, c)
		close(c.send)
	}
}

// ServeHTTP upgrades the request and streams records until the client goes
// away.
func (l *Live) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	c := &liveClient{conn: conn, send: make(chan []byte, clientQueue)}

	l.mu.Lock()
	l.clients[c] = struct{}{}
	l.mu.Unlock()
	logging.Info("Live client connected", zap.String("remote_addr", r.RemoteAddr))

	go l.writePump(c)
	l.readPump(c)
}

// readPump discards client messages and notices disconnects.
func (l *Live) readPump(c *liveClient) {
	defer func() {
		l.mu.Lock()
		l.remove(c)
		l.mu.Unlock()
		logging.Info("Live client disconnected", zap.String("remote_addr", c.conn.RemoteAddr().String()))
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (l *Live) writePump(c *liveClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// Close disconnects every client.
func (l *Live) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for c := range l.clients {
		l.remove(c)
	}
}

// Serve serves the feed on addr at /live until ctx is done.
func (l *Live) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/live", l)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		l.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info("Serving live feed", zap.String("addr", addr), zap.String("path", "/live"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
