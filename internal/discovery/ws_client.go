// Package discovery watches DEX program logs over WebSocket and surfaces
// newly initialized pools as candidate mints.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// LogEvent is one logsNotification payload.
type LogEvent struct {
	Signature string
	Slot      int64
	Logs      []string
	Failed    bool
}

// StreamConfig tunes connection and reconnection behavior.
type StreamConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the backoff between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for keepalive ping frames.
	PingInterval time.Duration
	// ReadTimeout bounds each message read.
	ReadTimeout time.Duration
	// WriteTimeout bounds each message write.
	WriteTimeout time.Duration
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
}

// DefaultStreamConfig returns the default stream tuning.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// LogStream maintains one logsSubscribe subscription against a WebSocket RPC
// endpoint. Dropped connections are redialed with exponential backoff and the
// subscription is re-established.
type LogStream struct {
	endpoint string
	mentions []string
	config   StreamConfig
	logger   *log.Logger
	events   chan LogEvent
}

// NewLogStream creates a stream subscribed to logs mentioning the given
// addresses. A nil config uses DefaultStreamConfig.
func NewLogStream(endpoint string, mentions []string, config *StreamConfig) *LogStream {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}
	return &LogStream{
		endpoint: endpoint,
		mentions: mentions,
		config:   cfg,
		logger:   log.New(os.Stderr, "[discovery] ", log.LstdFlags),
		events:   make(chan LogEvent, 1024),
	}
}

// Events returns the notification channel. Closed when Run returns.
func (s *LogStream) Events() <-chan LogEvent {
	return s.events
}

// Run connects, subscribes and pumps notifications until ctx is canceled.
func (s *LogStream) Run(ctx context.Context) error {
	defer close(s.events)

	delay := s.config.ReconnectDelay
	for {
		err := s.session(ctx, &delay)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Printf("stream disconnected: %v; reconnecting in %s", err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

// session runs one dial-subscribe-read cycle and returns the terminal error.
// The backoff delay is reset once the subscription is confirmed.
func (s *LogStream) session(ctx context.Context, delay *time.Duration) error {
	dialer := websocket.Dialer{HandshakeTimeout: s.config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	if err := s.subscribe(conn); err != nil {
		return err
	}
	*delay = s.config.ReconnectDelay

	// Close the connection when ctx ends so the blocked read returns.
	sessionDone := make(chan struct{})
	defer close(sessionDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-sessionDone:
		}
	}()
	go s.pingLoop(conn, sessionDone)

	for {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		if event, ok := parseLogNotification(message); ok {
			select {
			case s.events <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// subscribe sends logsSubscribe and waits for the confirmation frame.
func (s *LogStream) subscribe(conn *websocket.Conn) error {
	filter := map[string]interface{}{"mentions": s.mentions}
	if len(s.mentions) == 0 {
		filter = map[string]interface{}{"all": nil}
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "logsSubscribe",
		Params: []interface{}{
			filter,
			map[string]string{"commitment": "confirmed"},
		},
	}

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read subscribe confirmation: %w", err)
	}

	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		return fmt.Errorf("unmarshal subscribe confirmation: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("subscribe rejected: code=%d %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result <= 0 {
		return fmt.Errorf("subscribe confirmation missing subscription id")
	}
	return nil
}

func (s *LogStream) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				// Dead connection; the reader notices and reconnects.
				return
			}
		}
	}
}

func parseLogNotification(message []byte) (LogEvent, bool) {
	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err != nil {
		return LogEvent{}, false
	}
	if notif.Method != "logsNotification" || notif.Params == nil {
		return LogEvent{}, false
	}

	value := notif.Params.Result.Value
	event := LogEvent{
		Signature: value.Signature,
		Logs:      value.Logs,
		Failed:    value.Err != nil,
	}
	if notif.Params.Result.Context != nil {
		event.Slot = notif.Params.Result.Context.Slot
	}
	return event, true
}

// Wire types for the logsSubscribe protocol.

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      uint64   `json:"id"`
	Result  int64    `json:"result"`
	Error   *wsError `json:"error"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
