// Package client is a Go SDK for the skirmishd demo host: a websocket
// subscription to the live frame feed plus typed helpers for the REST
// control surface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skirmish/skirmish/internal/core/events"
	"github.com/skirmish/skirmish/internal/core/observability/log"
)

// Config holds configuration for the client
type Config struct {
	// ServerAddr is host:port of a running skirmishd.
	ServerAddr string

	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	LogLevel log.Level
}

// DefaultConfig returns sane client defaults for a local skirmishd.
func DefaultConfig() Config {
	return Config{
		ServerAddr:     "127.0.0.1:8080",
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 5 * time.Second,
		LogLevel:       log.LevelInfo,
	}
}

// Entity is one combatant as reported by the host.
type Entity struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	HP       float64 `json:"hp"`
	MaxHP    float64 `json:"max_hp"`
	Behavior string  `json:"behavior"`
	Static   string  `json:"static"`
	Alive    bool    `json:"alive"`
}

// Frame is one broadcast from the host feed.
type Frame struct {
	Entities []Entity       `json:"entities"`
	Events   []events.Event `json:"events"`
	Dropped  uint64         `json:"dropped_events"`
}

// FrameHandler receives every frame from the feed.
type FrameHandler func(Frame)

// Client talks to one skirmishd instance. Safe for concurrent use.
type Client struct {
	config Config
	logger log.Log
	http   *http.Client

	conn *websocket.Conn

	handlerMutex  sync.RWMutex
	frameHandlers []FrameHandler

	connected atomic.Bool
	closed    atomic.Bool
	done      chan struct{}
}

// New creates a disconnected client.
func New(config Config, logger log.Log) (*Client, error) {
	if config.ServerAddr == "" {
		return nil, ErrInvalidConfig
	}
	if logger == nil {
		logger = log.New(config.LogLevel)
	}
	return &Client{
		config: config,
		logger: logger,
		http:   &http.Client{Timeout: config.RequestTimeout},
		done:   make(chan struct{}),
	}, nil
}

// OnFrame registers a handler called for every feed frame. Handlers run
// on the read goroutine and should be quick.
func (c *Client) OnFrame(h FrameHandler) {
	c.handlerMutex.Lock()
	c.frameHandlers = append(c.frameHandlers, h)
	c.handlerMutex.Unlock()
}

// Connect dials the websocket feed and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if !c.connected.CompareAndSwap(false, true) {
		return ErrAlreadyConnected
	}

	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/ws"}
	dialer := websocket.Dialer{HandshakeTimeout: c.config.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		c.connected.Store(false)
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	c.conn = conn

	go c.readLoop()
	c.logger.Info("connected to host feed", log.String("addr", c.config.ServerAddr))
	return nil
}

func (c *Client) readLoop() {
	defer c.connected.Store(false)
	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("feed read failed", log.Error(err))
			}
			return
		}
		c.handlerMutex.RLock()
		handlers := c.frameHandlers
		c.handlerMutex.RUnlock()
		for _, h := range handlers {
			h(f)
		}
	}
}

// Close tears down the feed connection. Idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Connected reports whether the feed is live.
func (c *Client) Connected() bool { return c.connected.Load() }

// KindSpec describes a spawnable kind for RegisterKind.
type KindSpec struct {
	Kind     string  `json:"kind"`
	Capacity int     `json:"capacity"`
	Static   uint32  `json:"static_flags"`
	MaxHP    float64 `json:"max_hp"`
	Attack   float64 `json:"attack"`
	Defense  float64 `json:"defense"`
}

// RegisterKind declares a spawnable kind on the host.
func (c *Client) RegisterKind(ctx context.Context, spec KindSpec) error {
	return c.post(ctx, "/api/kinds", spec, nil)
}

// Spawn creates an entity and returns its ID.
func (c *Client) Spawn(ctx context.Context, kind string, x, y float64) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/api/spawn", map[string]any{
		"kind": kind, "x": x, "y": y,
	}, &resp)
	return resp.ID, err
}

// Despawn removes an entity.
func (c *Client) Despawn(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/entities/"+id, nil, nil)
}

// Damage applies host-sourced damage and returns the remaining HP.
func (c *Client) Damage(ctx context.Context, id string, amount float64) (float64, error) {
	var resp struct {
		HP float64 `json:"hp"`
	}
	err := c.post(ctx, "/api/entities/"+id+"/damage", map[string]any{"amount": amount}, &resp)
	return resp.HP, err
}

// Heal restores HP and returns the new total.
func (c *Client) Heal(ctx context.Context, id string, amount float64) (float64, error) {
	var resp struct {
		HP float64 `json:"hp"`
	}
	err := c.post(ctx, "/api/entities/"+id+"/heal", map[string]any{"amount": amount}, &resp)
	return resp.HP, err
}

// Entities fetches the current world snapshot over REST.
func (c *Client) Entities(ctx context.Context) ([]Entity, error) {
	var out []Entity
	err := c.do(ctx, http.MethodGet, "/api/entities", nil, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://"+c.config.ServerAddr+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s %s: %d %s", ErrRequestFailed, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
