// ABOUTME: WebSocket link to the native mix engine
// ABOUTME: Writes fire-and-forget commands, fans inbound streams into channels
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/protocol"
	"github.com/gorilla/websocket"
)

// Config holds link configuration.
type Config struct {
	EngineAddr string
	Name       string
	Version    int
}

// Link is the websocket connection to the engine. The write side carries
// one-way console commands; the read side fans transport and metering
// frames into buffered channels. Frames that would block are dropped,
// metering is a lossy stream by design.
type Link struct {
	config Config
	conn   *websocket.Conn

	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool

	Transport chan protocol.TransportState
	Metering  chan protocol.MeteringState

	ctx    context.Context
	cancel context.CancelFunc
}

// NewLink creates an unconnected engine link.
func NewLink(config Config) *Link {
	ctx, cancel := context.WithCancel(context.Background())

	return &Link{
		config:    config,
		Transport: make(chan protocol.TransportState, 10),
		Metering:  make(chan protocol.MeteringState, 100),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect dials the engine and performs the hello handshake.
func (l *Link) Connect() error {
	u := url.URL{Scheme: "ws", Host: l.config.EngineAddr, Path: "/mixdesk"}
	log.Printf("Connecting to engine at %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	l.mu.Lock()
	l.conn = conn
	l.connected = true
	l.mu.Unlock()

	if err := l.handshake(); err != nil {
		l.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go l.readMessages()

	return nil
}

// handshake exchanges console/hello and engine/hello.
func (l *Link) handshake() error {
	hello := protocol.ConsoleHello{
		Name:    l.config.Name,
		Version: l.config.Version,
	}
	if err := l.Send(protocol.TypeConsoleHello, hello); err != nil {
		return fmt.Errorf("failed to send console/hello: %w", err)
	}

	l.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := l.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read engine/hello: %w", err)
	}
	l.conn.SetReadDeadline(time.Time{})

	var raw protocol.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse engine/hello: %w", err)
	}
	if raw.Type != protocol.TypeEngineHello {
		return fmt.Errorf("expected engine/hello, got %s", raw.Type)
	}

	var eh protocol.EngineHello
	if err := json.Unmarshal(raw.Payload, &eh); err != nil {
		return fmt.Errorf("failed to parse engine/hello payload: %w", err)
	}
	log.Printf("Linked to engine: %s (v%d)", eh.Name, eh.Version)

	return nil
}

// Send writes one fire-and-forget message. It satisfies the adapter's
// Sender contract; no acknowledgment ever comes back.
func (l *Link) Send(msgType string, payload interface{}) error {
	l.mu.RLock()
	connected := l.connected
	conn := l.conn
	l.mu.RUnlock()

	if !connected {
		return fmt.Errorf("not connected")
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return conn.WriteJSON(protocol.Message{Type: msgType, Payload: payload})
}

// readMessages reads and routes inbound stream frames until the link
// drops.
func (l *Link) readMessages() {
	defer l.Close()

	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		_, data, err := l.conn.ReadMessage()
		if err != nil {
			log.Printf("Engine link read error: %v", err)
			return
		}

		l.routeMessage(data)
	}
}

// routeMessage fans one inbound frame into its stream channel. Malformed
// payloads are logged and dropped, never surfaced.
func (l *Link) routeMessage(data []byte) {
	var raw protocol.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("Failed to parse engine message: %v", err)
		return
	}

	switch raw.Type {
	case protocol.TypeTransportState:
		var ts protocol.TransportState
		if err := json.Unmarshal(raw.Payload, &ts); err != nil {
			log.Printf("Bad transport frame: %v", err)
			return
		}
		select {
		case l.Transport <- ts:
		case <-l.ctx.Done():
		}

	case protocol.TypeMeteringState:
		var ms protocol.MeteringState
		if err := json.Unmarshal(raw.Payload, &ms); err != nil {
			log.Printf("Bad metering frame: %v", err)
			return
		}
		// Metering is lossy: drop the frame rather than stall the
		// reader when the consumer lags.
		select {
		case l.Metering <- ms:
		default:
		}

	default:
		log.Printf("Unknown engine message type: %s", raw.Type)
	}
}

// Close tears the link down. Safe to call more than once.
func (l *Link) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connected {
		l.connected = false
		l.cancel()
		l.conn.Close()
		log.Printf("Engine link closed")
	}
}

// IsConnected returns link status.
func (l *Link) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}
