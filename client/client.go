// Package client is a small typed websocket client used by the e2e
// suite and handy as a manual smoke-test harness.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client wraps one websocket connection. A background goroutine drains
// incoming frames into a buffered channel so WaitFor never races the
// reader.
type Client struct {
	ws     *websocket.Conn
	frames chan Frame
	mu     sync.Mutex // guards writes, gorilla allows one writer at a time
	done   chan struct{}
}

func Dial(ctx context.Context, url string) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Client{
		ws:     ws,
		frames: make(chan Frame, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		var frame Frame
		if err := c.ws.ReadJSON(&frame); err != nil {
			return
		}
		select {
		case c.frames <- frame:
		default:
			// A slow test that never drains loses oldest-first semantics;
			// dropping here keeps the reader alive.
		}
	}
}

// Emit sends an event with a JSON-marshalable payload. A nil payload
// sends the envelope without data.
func (c *Client) Emit(eventName string, payload any) error {
	frame := Frame{Event: eventName}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		frame.Data = data
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(frame)
}

// WaitFor blocks until a frame with the given event name arrives,
// discarding every other frame on the way.
func (c *Client) WaitFor(eventName string, timeout time.Duration) (Frame, error) {
	deadline := time.After(timeout)
	for {
		select {
		case frame := <-c.frames:
			if frame.Event == eventName {
				return frame, nil
			}
		case <-c.done:
			return Frame{}, fmt.Errorf("connection closed while waiting for %q", eventName)
		case <-deadline:
			return Frame{}, fmt.Errorf("timed out waiting for %q", eventName)
		}
	}
}

// Drain empties any frames already buffered, useful before asserting
// absence of traffic.
func (c *Client) Drain() {
	for {
		select {
		case <-c.frames:
		default:
			return
		}
	}
}

// NextWithin returns the next frame if one arrives before the timeout.
// The boolean is false when the window elapses silently.
func (c *Client) NextWithin(timeout time.Duration) (Frame, bool) {
	select {
	case frame := <-c.frames:
		return frame, true
	case <-time.After(timeout):
		return Frame{}, false
	}
}

func (c *Client) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}
