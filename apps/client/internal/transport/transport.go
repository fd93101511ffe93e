package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Listener receives the connection lifecycle. Callbacks run on transport
// goroutines and must not block for long.
type Listener interface {
	OnOpen()
	OnClose()
	OnError(message string)
	OnMessage(frame []byte)
	OnReconnectAttempt(attempt int, delay time.Duration)
}

const (
	msgInvalidServerMessage = "Received invalid server message."
	msgSocketError          = "WebSocket error."
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	URL              string
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PongWait         time.Duration
	ReadLimit        int64
	Header           http.Header
	Dialer           *websocket.Dialer
	Logger           *zap.Logger
}

func (o *Options) setDefaults() {
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.PongWait <= o.PingInterval {
		o.PongWait = 2 * o.PingInterval
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20
	}
	if o.Dialer == nil {
		o.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: o.HandshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Client owns the single socket to the table authority and its reconnect
// schedule. It knows nothing about message semantics beyond "is this JSON".
type Client struct {
	opts Options
	log  *zap.Logger

	mu              sync.Mutex
	listener        Listener
	conn            *websocket.Conn
	dialing         bool
	gen             uint64 // bumped whenever the current socket is abandoned
	attempt         int
	shouldReconnect bool
	joinFrame       []byte
	retry           *time.Timer
	retrySeq        uint64

	writeMu sync.Mutex
}

func New(opts Options) *Client {
	opts.setDefaults()
	return &Client{
		opts:     opts,
		log:      opts.Logger.Named("transport"),
		listener: nopListener{},
	}
}

// Configure installs the listener. Passing nil silences events.
func (c *Client) Configure(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l == nil {
		l = nopListener{}
	}
	c.listener = l
}

// SetJoinFrame registers the frame sent first on every successful open.
// nil clears it, which also stops any further reconnect scheduling.
func (c *Client) SetJoinFrame(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if frame == nil {
		c.joinFrame = nil
		return
	}
	c.joinFrame = append([]byte(nil), frame...)
}

// Connected reports whether a socket is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Attempt returns the current reconnect attempt counter.
func (c *Client) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// Connect ensures a socket is open or opening. It returns immediately.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.conn != nil || c.dialing {
		c.mu.Unlock()
		return
	}
	c.shouldReconnect = true
	c.dialing = true
	gen := c.gen
	c.mu.Unlock()

	go c.dial(gen)
}

// Disconnect closes the socket. With manual set, reconnection is disarmed,
// the pending retry is cancelled, an in-flight dial is abandoned and no
// further lifecycle events are emitted for the closed socket. Without it the
// socket is closed and the regular close path decides about retrying.
func (c *Client) Disconnect(manual bool) {
	c.mu.Lock()
	conn := c.conn
	if manual {
		c.shouldReconnect = false
		c.stopRetryLocked()
		c.gen++
		c.conn = nil
		c.dialing = false
	}
	c.mu.Unlock()

	if conn == nil {
		return
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), deadline)
	_ = conn.Close()
}

// Close disposes the client; equivalent to a manual disconnect.
func (c *Client) Close() error {
	c.Disconnect(true)
	return nil
}

// Send writes one text frame. It reports false when there is no open socket
// or the write fails; it never queues or retries.
func (c *Client) Send(frame []byte) bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.log.Warn("write failed", zap.Error(err))
		return false
	}
	return true
}

func (c *Client) dial(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.HandshakeTimeout)
	conn, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, c.opts.Header)
	cancel()

	c.mu.Lock()
	if gen != c.gen {
		// Abandoned by a manual disconnect while dialing.
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		// dialing stays set until closed bumps the generation.
		listener := c.listener
		c.mu.Unlock()
		c.log.Info("dial failed", zap.String("url", c.opts.URL), zap.Error(err))
		listener.OnError(msgSocketError)
		c.closed(gen, nil)
		return
	}

	c.dialing = false
	c.conn = conn
	c.attempt = 0
	join := c.joinFrame
	listener := c.listener
	c.mu.Unlock()

	conn.SetReadLimit(c.opts.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	c.log.Info("connected", zap.String("url", c.opts.URL))
	listener.OnOpen()
	if join != nil {
		if !c.Send(join) {
			c.log.Warn("join frame not delivered")
		}
	}

	done := make(chan struct{})
	go c.pingLoop(conn, done)
	c.readLoop(gen, conn)
	close(done)
}

func (c *Client) readLoop(gen uint64, conn *websocket.Conn) {
	defer c.closed(gen, conn)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		listener := c.currentListener(gen)
		if listener == nil {
			return
		}
		if !json.Valid(data) {
			c.log.Debug("dropping non-JSON frame", zap.Int("bytes", len(data)))
			listener.OnError(msgInvalidServerMessage)
			continue
		}
		listener.OnMessage(data)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.opts.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// currentListener returns the listener while gen is still the live socket.
func (c *Client) currentListener(gen uint64) Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	return c.listener
}

// closed runs once per dial outcome (failed dial or ended read loop).
func (c *Client) closed(gen uint64, conn *websocket.Conn) {
	if conn != nil {
		_ = conn.Close()
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.dialing = false
	c.gen++

	var (
		attempt  int
		delay    time.Duration
		schedule = c.shouldReconnect && c.joinFrame != nil
	)
	if schedule {
		c.attempt++
		attempt = c.attempt
		delay = Backoff(attempt, c.opts.BaseDelay, c.opts.MaxDelay)
		c.stopRetryLocked()
		seq := c.retrySeq
		c.retry = time.AfterFunc(delay, func() { c.reconnect(seq) })
	}
	listener := c.listener
	c.mu.Unlock()

	c.log.Info("connection closed", zap.Bool("retry", schedule), zap.Int("attempt", attempt), zap.Duration("delay", delay))
	listener.OnClose()
	if schedule {
		listener.OnReconnectAttempt(attempt, delay)
	}
}

func (c *Client) reconnect(seq uint64) {
	c.mu.Lock()
	if seq != c.retrySeq || !c.shouldReconnect {
		c.mu.Unlock()
		return
	}
	c.retry = nil
	if c.conn != nil || c.dialing {
		c.mu.Unlock()
		return
	}
	c.dialing = true
	gen := c.gen
	c.mu.Unlock()

	go c.dial(gen)
}

func (c *Client) stopRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	c.retrySeq++
}

type nopListener struct{}

func (nopListener) OnOpen()                               {}
func (nopListener) OnClose()                              {}
func (nopListener) OnError(string)                        {}
func (nopListener) OnMessage([]byte)                      {}
func (nopListener) OnReconnectAttempt(int, time.Duration) {}
