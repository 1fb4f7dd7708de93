package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	apperrors "github.com/vango-dev/slicestore/internal/errors"
	"github.com/vango-dev/slicestore/pkg/store"
)

// FeedMessageType is the type of a state feed message.
type FeedMessageType string

const (
	FeedTypeState FeedMessageType = "state"
	FeedTypeError FeedMessageType = "error"
)

// FeedMessage is sent to feed clients.
//
// A state message is pushed to every client after each store broadcast. An
// error message is sent only to the client whose action failed.
type FeedMessage struct {
	Type  FeedMessageType `json:"type"`
	State any             `json:"state,omitempty"`
	Code  string          `json:"code,omitempty"`
	Error string          `json:"error,omitempty"`
}

// feed manages WebSocket clients of the state feed.
type feed struct {
	server   *Server
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*feedClient]struct{}
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func newFeed(s *Server) *feed {
	return &feed{
		server:  s,
		clients: make(map[*feedClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originCheck(s.config.AllowedOrigins),
		},
	}
}

// serveWS upgrades the connection, sends the current state and then
// dispatches every action the client sends until it disconnects.
func (f *feed) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.server.config.Metrics.RecordFeedError("upgrade")
		return
	}
	conn.SetReadLimit(f.server.config.MaxMessageSize)

	c := &feedClient{
		conn: conn,
		send: make(chan []byte, f.server.config.FeedBuffer),
	}
	go f.writeLoop(c)

	// Register and snapshot under the dispatch lock so no broadcast falls
	// between the two.
	f.server.mu.Lock()
	f.add(c)
	st, err := f.server.state()
	f.server.mu.Unlock()
	if err != nil {
		f.sendError(c, err)
	} else {
		f.enqueue(c, FeedMessage{Type: FeedTypeState, State: st})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		action, err := store.ParseAction(json.RawMessage(data))
		if err == nil {
			err = f.server.Dispatch(r.Context(), action)
		}
		if err != nil {
			f.sendError(c, err)
		}
	}

	f.remove(c)
}

func (f *feed) writeLoop(c *feedClient) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			f.server.config.Metrics.RecordFeedError("write")
			f.remove(c)
			return
		}
	}
}

// publishState is the store listener. It runs inside the dispatch and must
// not block.
func (f *feed) publishState() {
	st, err := f.server.state()
	if err != nil {
		f.server.logger.Warn("feed state read failed", "error", err)
		return
	}
	data, err := json.Marshal(FeedMessage{Type: FeedTypeState, State: st})
	if err != nil {
		f.server.config.Metrics.RecordFeedError("encode")
		f.server.logger.Warn("feed encode failed", "error", err)
		return
	}

	f.mu.RLock()
	clients := make([]*feedClient, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
	}
	f.mu.RUnlock()

	for _, c := range clients {
		f.push(c, data)
	}
}

func (f *feed) sendError(c *feedClient, err error) {
	coded := apperrors.FromStore(err)
	msg := FeedMessage{Type: FeedTypeError, Code: coded.Code, Error: err.Error()}
	f.enqueue(c, msg)
}

func (f *feed) enqueue(c *feedClient, msg FeedMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		f.server.config.Metrics.RecordFeedError("encode")
		return
	}
	f.push(c, data)
}

// push queues data for c, dropping the client when its queue is full.
func (f *feed) push(c *feedClient, data []byte) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		f.server.config.Metrics.RecordFeedError("dropped")
		go f.remove(c)
	}
}

func (f *feed) add(c *feedClient) {
	f.mu.Lock()
	f.clients[c] = struct{}{}
	f.mu.Unlock()
	f.server.config.Metrics.RecordFeedConnect()
}

// remove unregisters c and closes its connection. It is safe to call more
// than once.
func (f *feed) remove(c *feedClient) {
	c.once.Do(func() {
		f.mu.Lock()
		delete(f.clients, c)
		close(c.send)
		f.mu.Unlock()
		c.conn.Close()
		f.server.config.Metrics.RecordFeedDisconnect()
	})
}

// ClientCount returns the number of connected feed clients.
func (s *Server) ClientCount() int {
	s.feed.mu.RLock()
	defer s.feed.mu.RUnlock()
	return len(s.feed.clients)
}

func (f *feed) close() {
	f.mu.RLock()
	clients := make([]*feedClient, 0, len(f.clients))
	for c := range f.clients {
		clients = append(clients, c)
	}
	f.mu.RUnlock()

	for _, c := range clients {
		f.remove(c)
	}
}
