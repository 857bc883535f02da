package transcript

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/robbyt/go-rbridge/internal/helpers"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingEvery  = (feedPongWait * 9) / 10
	feedBufferSize = 256
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type feedClient struct {
	send chan Entry
}

// Feed is a Sink that broadcasts entries to websocket clients as JSON. New clients first
// receive the most recent entries. A client that falls behind loses its oldest entries
// rather than slowing the interpreter down.
type Feed struct {
	mu      sync.Mutex
	clients map[*feedClient]struct{}
	backlog []Entry
	closed  bool
	done    chan struct{}

	logger *slog.Logger
}

var (
	_ Sink         = (*Feed)(nil)
	_ http.Handler = (*Feed)(nil)
)

// NewFeed creates a Feed with no clients.
func NewFeed(handler slog.Handler) *Feed {
	_, logger := helpers.SetupLogger(handler, "transcript", "Feed")
	return &Feed{
		clients: make(map[*feedClient]struct{}),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Write queues e for every connected client.
func (f *Feed) Write(e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}

	f.backlog = append(f.backlog, e)
	if len(f.backlog) > feedBufferSize {
		f.backlog = f.backlog[len(f.backlog)-feedBufferSize:]
	}
	for c := range f.clients {
		pushEntry(c.send, e)
	}
	return nil
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close disconnects every client and stops accepting new ones.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.done)
}

func (f *Feed) register() (*feedClient, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false
	}
	c := &feedClient{send: make(chan Entry, feedBufferSize)}
	for _, e := range f.backlog {
		c.send <- e
	}
	f.clients[c] = struct{}{}
	return c, true
}

func (f *Feed) unregister(c *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, c)
}

// ServeHTTP upgrades the request and streams entries until the client goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := f.logger.WithGroup("ServeHTTP").With("remote", r.RemoteAddr)

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client, ok := f.register()
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
			time.Now().Add(feedWriteWait))
		return
	}
	defer f.unregister(client)
	logger.Info("feed client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(feedPongWait)); err != nil {
		logger.Warn("set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	// The feed is one-way; reading only services control frames and notices disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("feed client disconnected")
			return
		case <-f.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
				time.Now().Add(feedWriteWait))
			return
		case e := <-client.send:
			if err := conn.SetWriteDeadline(time.Now().Add(feedWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				logger.Warn("feed write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(feedWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// pushEntry never blocks: when the buffer is full the oldest entry is dropped.
func pushEntry(ch chan Entry, e Entry) {
	select {
	case ch <- e:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- e:
	default:
	}
}
