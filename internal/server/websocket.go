package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/conneroisu/sitekit/internal/dom"
	"github.com/conneroisu/sitekit/internal/logging"
	"github.com/conneroisu/sitekit/internal/search"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 64
)

// ClientMessage is an event forwarded by the page script.
type ClientMessage struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
	Key   string `json:"key,omitempty"`
	Query string `json:"query,omitempty"`
}

// HelloMessage is sent once a session is registered.
type HelloMessage struct {
	Type       string `json:"type"`
	Page       string `json:"page,omitempty"`
	LiveSearch bool   `json:"live_search"`
}

// UpdateMessage carries the container and status after a search.
type UpdateMessage struct {
	Type          string    `json:"type"`
	Query         string    `json:"query"`
	State         string    `json:"state"`
	Matches       int       `json:"matches"`
	Content       string    `json:"content"`
	Status        string    `json:"status"`
	StatusVisible bool      `json:"status_visible"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReloadMessage tells pages that the output changed.
type ReloadMessage struct {
	Type      string    `json:"type"`
	Paths     []string  `json:"paths"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorMessage reports a rejected client message.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// hub tracks open sessions.
type hub struct {
	clients      map[*client]struct{}
	clientsMutex sync.RWMutex
	logger       logging.Logger
}

func newHub(logger logging.Logger) *hub {
	return &hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

func (h *hub) add(c *client) int {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()
	h.clients[c] = struct{}{}
	return len(h.clients)
}

func (h *hub) remove(c *client) int {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()
	delete(h.clients, c)
	return len(h.clients)
}

func (h *hub) count() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// broadcast queues msg for every session and returns how many took it.
func (h *hub) broadcast(msg interface{}) int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	n := 0
	for c := range h.clients {
		if c.enqueue(msg) {
			n++
		}
	}
	return n
}

func (h *hub) closeAll() {
	h.clientsMutex.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMutex.Unlock()

	for _, c := range clients {
		c.close(websocket.StatusGoingAway, "server shutting down")
	}
}

// client is one websocket session. When live search is on and the requested
// page has a search widget, the session owns a parsed copy of the page and
// relays the browser's events to it.
type client struct {
	conn    *websocket.Conn
	send    chan interface{}
	page    *dom.Page
	name    string
	limiter *messageLimiter
	logger  logging.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once

	// latest input refused by the limiter, replayed when it lifts
	deferred      *time.Timer
	deferredSeq   int
	deferredMutex sync.Mutex
}

// enqueue never blocks; a session that cannot keep up loses messages.
func (c *client) enqueue(msg interface{}) bool {
	select {
	case <-c.ctx.Done():
		return false
	case c.send <- msg:
		return true
	default:
		c.logger.Debug(c.ctx, "Dropping websocket message, send queue full")
		return false
	}
}

// deferInput applies value to the widget after d unless a newer input,
// keystroke or search arrives first.
func (c *client) deferInput(value string, d time.Duration) {
	c.deferredMutex.Lock()
	defer c.deferredMutex.Unlock()

	if c.deferred != nil {
		c.deferred.Stop()
	}
	c.deferredSeq++
	seq := c.deferredSeq
	c.deferred = time.AfterFunc(d, func() {
		c.deferredMutex.Lock()
		defer c.deferredMutex.Unlock()
		if seq != c.deferredSeq || c.ctx.Err() != nil {
			return
		}
		c.deferred = nil
		c.page.Widget.OnInput(value)
	})
}

func (c *client) stopDeferred() {
	c.deferredMutex.Lock()
	defer c.deferredMutex.Unlock()

	c.deferredSeq++
	if c.deferred != nil {
		c.deferred.Stop()
		c.deferred = nil
	}
}

func (c *client) close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		c.stopDeferred()
		if c.page != nil {
			c.page.Widget.Close()
		}
		// the close frame must go out before cancelling, which drops the connection
		c.conn.Close(code, reason)
		c.cancel()
	})
}

func (s *Server) originPatterns() []string {
	patterns := []string{"localhost:*", "127.0.0.1:*"}
	if h := s.config.Server.Host; h != "" && h != "localhost" && h != "127.0.0.1" {
		patterns = append(patterns, h+":*")
	}
	return patterns
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		conn:    conn,
		send:    make(chan interface{}, sendBuffer),
		limiter: newMessageLimiter(messageLimit, messageWindow),
		logger:  s.logger.With("remote", r.RemoteAddr),
		ctx:     ctx,
		cancel:  cancel,
	}

	if s.config.Server.LiveSearch {
		s.bindPage(c, r.URL.Query().Get("page"))
	}

	total := s.hub.add(c)
	s.logger.Info(ctx, "Client connected", "page", c.name, "total", total)

	c.enqueue(HelloMessage{Type: "hello", Page: c.name, LiveSearch: c.page != nil})

	go s.writePump(c)
	s.readPump(c)
}

// bindPage attaches a search widget to the session's copy of the page.
// Pages that fail to load or lack the widget's elements only get reloads.
func (s *Server) bindPage(c *client, name string) {
	doc, page, err := s.loadPage(name)
	c.name = page
	if err != nil {
		c.logger.Debug(c.ctx, "Live search unavailable", "page", page, "error", err.Error())
		return
	}

	var p *dom.Page
	p = dom.Bind(doc, dom.IDsFromConfig(s.config.Search),
		search.WithDebounce(s.config.Search.Debounce()),
		search.WithLogger(c.logger),
		search.WithUpdateHandler(func(res search.Result, state search.State) {
			c.enqueue(UpdateMessage{
				Type:          "update",
				Query:         res.Query,
				State:         state.String(),
				Matches:       res.Matches,
				Content:       p.ContentHTML(),
				Status:        p.StatusText(),
				StatusVisible: p.StatusVisible(),
				Timestamp:     time.Now(),
			})
		}),
	)
	if !p.Widget.Enabled() {
		return
	}
	c.page = p
}

// readPump dispatches client messages until the connection closes.
func (s *Server) readPump(c *client) {
	defer func() {
		total := s.hub.remove(c)
		c.close(websocket.StatusNormalClosure, "")
		s.logger.Info(context.Background(), "Client disconnected", "page", c.name, "total", total)
	}()

	for {
		readCtx, readCancel := context.WithTimeout(c.ctx, pongWait)
		var msg ClientMessage
		err := wsjson.Read(readCtx, c.conn, &msg)
		readCancel()

		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway &&
				!errors.Is(err, context.Canceled) {
				c.logger.Debug(c.ctx, "WebSocket read ended", "error", err.Error())
			}
			return
		}

		if !c.limiter.Allow() {
			// the final keystroke of a burst must still be searched
			if msg.Type == "input" && c.page != nil {
				c.deferInput(msg.Value, c.limiter.RetryAfter())
			}
			c.enqueue(ErrorMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}
		s.dispatch(c, msg)
	}
}

func (s *Server) dispatch(c *client, msg ClientMessage) {
	if msg.Type == "ping" {
		return
	}
	if c.page == nil {
		c.enqueue(ErrorMessage{Type: "error", Message: "live search is not available for this page"})
		return
	}

	w := c.page.Widget
	switch msg.Type {
	case "input", "keydown", "search":
		c.stopDeferred()
	}
	switch msg.Type {
	case "input":
		w.OnInput(msg.Value)
	case "keydown":
		w.OnKeyDown(msg.Key)
	case "blur":
		w.OnBlur()
	case "search":
		if c.page.Input != nil {
			c.page.Input.SetValue(msg.Query)
		}
		w.Search(msg.Query)
	default:
		c.enqueue(ErrorMessage{Type: "error", Message: "unknown message type: " + msg.Type})
	}
}

// writePump writes queued messages and keeps the connection alive.
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.send:
			writeCtx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := wsjson.Write(writeCtx, c.conn, msg)
			cancel()
			if err != nil {
				c.logger.Debug(c.ctx, "WebSocket write failed", "error", err.Error())
				c.close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}
