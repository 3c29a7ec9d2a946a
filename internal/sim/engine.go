// ABOUTME: Simulated mix engine for development and tests
// ABOUTME: Serves the websocket link, honors commands, synthesizes metering
package sim

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/discovery"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/gain"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/protocol"
	"github.com/gorilla/websocket"
)

// ProtocolVersion is the engine link version this simulator speaks.
const ProtocolVersion = 1

// meteringInterval is the live metering frame rate (~30 Hz).
const meteringInterval = 33 * time.Millisecond

// Config holds simulator configuration.
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
}

// track mirrors one engine-side playback track.
type track struct {
	name   string
	busID  int
	gain   float64
	pan    float64
	muted  bool
	soloed bool
	vcaID  int
}

// vca mirrors one engine-side VCA.
type vca struct {
	name  string
	level float64
	muted bool
}

// Engine is a stand-in for the native mix engine: it accepts the console
// link, applies every command to a shadow track registry, and streams
// transport and synthesized metering frames back. Commands are never
// acknowledged, exactly like the real engine.
type Engine struct {
	config   Config
	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	mu         sync.RWMutex
	consoles   map[*websocket.Conn]chan protocol.Message
	tracks     map[int]*track
	vcas       map[int]*vca
	masterGain float64
	busGain    map[int]float64
	busMuted   map[int]bool
	playing    bool
	phase      float64

	mdnsManager *discovery.Manager

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a simulator.
func New(config Config) *Engine {
	if config.Name == "" {
		config.Name = "mixdesk-sim"
	}

	return &Engine{
		config: config,
		upgrader: websocket.Upgrader{
			// Local development tool; non-browser consoles carry no
			// Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux:        http.NewServeMux(),
		consoles:   make(map[*websocket.Conn]chan protocol.Message),
		tracks:     make(map[int]*track),
		vcas:       make(map[int]*vca),
		masterGain: 1.0,
		busGain:    make(map[int]float64),
		busMuted:   make(map[int]bool),
		stopChan:   make(chan struct{}),
	}
}

// Start begins serving the engine link.
func (e *Engine) Start() error {
	e.mux.HandleFunc("/mixdesk", e.handleWebSocket)

	e.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", e.config.Port),
		Handler: e.mux,
	}

	if e.config.EnableMDNS {
		e.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: e.config.Name,
			Port:        e.config.Port,
			EngineMode:  true,
		})
		if err := e.mdnsManager.Advertise(); err != nil {
			log.Printf("mDNS advertisement failed: %v", err)
		}
	}

	e.wg.Add(1)
	go e.meteringLoop()

	go func() {
		log.Printf("Simulated engine %s listening on :%d", e.config.Name, e.config.Port)
		if err := e.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Engine server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts the simulator down.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
		if e.mdnsManager != nil {
			e.mdnsManager.Stop()
		}
		if e.httpServer != nil {
			e.httpServer.Close()
		}
		e.wg.Wait()
	})
}

// Play starts the simulated transport and announces it.
func (e *Engine) Play() {
	e.setPlaying(true)
}

// Pause stops the simulated transport and announces it.
func (e *Engine) Pause() {
	e.setPlaying(false)
}

func (e *Engine) setPlaying(playing bool) {
	e.mu.Lock()
	e.playing = playing
	e.mu.Unlock()
	e.broadcast(protocol.TypeTransportState, protocol.TransportState{IsPlaying: playing})
}

// TrackCount reports how many tracks the simulator holds.
func (e *Engine) TrackCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.tracks)
}

// TrackGain reports one track's last commanded gain.
func (e *Engine) TrackGain(id int) (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tracks[id]
	if !ok {
		return 0, false
	}
	return t.gain, true
}

func (e *Engine) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade failed: %v", err)
		return
	}
	go e.handleConnection(conn)
}

func (e *Engine) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	// Expect console/hello first.
	_, data, err := conn.ReadMessage()
	if err != nil {
		return
	}
	var raw protocol.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw.Type != protocol.TypeConsoleHello {
		log.Printf("Rejecting connection: bad hello")
		return
	}
	var hello protocol.ConsoleHello
	if err := json.Unmarshal(raw.Payload, &hello); err != nil {
		return
	}
	log.Printf("Console linked: %s (v%d)", hello.Name, hello.Version)

	if err := conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeEngineHello,
		Payload: protocol.EngineHello{Name: e.config.Name, Version: ProtocolVersion},
	}); err != nil {
		return
	}

	sendChan := make(chan protocol.Message, 100)
	e.mu.Lock()
	e.consoles[conn] = sendChan
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.consoles, conn)
		e.mu.Unlock()
	}()

	e.wg.Add(1)
	go e.consoleWriter(conn, sendChan)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		e.handleCommand(data)
	}
}

func (e *Engine) consoleWriter(conn *websocket.Conn, sendChan chan protocol.Message) {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopChan:
			return
		case msg := <-sendChan:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// handleCommand applies one console command to the shadow registry.
// Unknown or malformed commands are logged and dropped; nothing is ever
// reported back.
func (e *Engine) handleCommand(data []byte) {
	var raw protocol.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("Bad command frame: %v", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch raw.Type {
	case protocol.TypeCreateTrack:
		var c protocol.CreateTrack
		if json.Unmarshal(raw.Payload, &c) == nil && c.TrackID > 0 {
			e.tracks[c.TrackID] = &track{name: c.Name, busID: c.BusID, gain: 1.0}
		}

	case protocol.TypeDeleteTrack:
		var c protocol.DeleteTrack
		if json.Unmarshal(raw.Payload, &c) == nil {
			delete(e.tracks, c.TrackID)
		}

	case protocol.TypeSetTrackVolume:
		var c protocol.SetTrackVolume
		if json.Unmarshal(raw.Payload, &c) == nil {
			if t, ok := e.tracks[c.TrackID]; ok {
				t.gain = c.Gain
			}
		}

	case protocol.TypeSetTrackPan:
		var c protocol.SetTrackPan
		if json.Unmarshal(raw.Payload, &c) == nil {
			if t, ok := e.tracks[c.TrackID]; ok {
				t.pan = c.Pan
			}
		}

	case protocol.TypeSetTrackMute:
		var c protocol.SetTrackMute
		if json.Unmarshal(raw.Payload, &c) == nil {
			if t, ok := e.tracks[c.TrackID]; ok {
				t.muted = c.Muted
			}
		}

	case protocol.TypeSetTrackSolo:
		var c protocol.SetTrackSolo
		if json.Unmarshal(raw.Payload, &c) == nil {
			if t, ok := e.tracks[c.TrackID]; ok {
				t.soloed = c.Soloed
			}
		}

	case protocol.TypeSetBusVolume:
		var c protocol.SetBusVolume
		if json.Unmarshal(raw.Payload, &c) == nil {
			e.busGain[c.BusID] = c.Gain
		}

	case protocol.TypeSetBusPan:
		// Pan has no effect on synthesized mono metering.

	case protocol.TypeSetBusMute:
		var c protocol.SetBusMute
		if json.Unmarshal(raw.Payload, &c) == nil {
			e.busMuted[c.BusID] = c.Muted
		}

	case protocol.TypeSetBusSolo:
		// Bus solo only changes which tracks the real engine renders;
		// the shadow registry keys audibility off track solo.

	case protocol.TypeSetMasterVolume:
		var c protocol.SetMasterVolume
		if json.Unmarshal(raw.Payload, &c) == nil {
			e.masterGain = c.Gain
		}

	case protocol.TypeVcaCreate:
		var c protocol.VcaCreate
		if json.Unmarshal(raw.Payload, &c) == nil && c.VcaID > 0 {
			e.vcas[c.VcaID] = &vca{name: c.Name, level: 1.0}
		}

	case protocol.TypeVcaAssignTrack:
		var c protocol.VcaAssignTrack
		if json.Unmarshal(raw.Payload, &c) == nil {
			if t, ok := e.tracks[c.TrackID]; ok {
				t.vcaID = c.VcaID
			}
		}

	case protocol.TypeVcaSetLevel:
		var c protocol.VcaSetLevel
		if json.Unmarshal(raw.Payload, &c) == nil {
			if v, ok := e.vcas[c.VcaID]; ok {
				v.level = c.Gain
			}
		}

	case protocol.TypeVcaSetMute:
		var c protocol.VcaSetMute
		if json.Unmarshal(raw.Payload, &c) == nil {
			if v, ok := e.vcas[c.VcaID]; ok {
				v.muted = c.Muted
			}
		}

	case protocol.TypeGroupCreate:
		// Groups are console-side sugar; the engine only logs them.
		var c protocol.GroupCreate
		if json.Unmarshal(raw.Payload, &c) == nil {
			log.Printf("Group created: %s (%d)", c.Name, c.GroupID)
		}

	default:
		log.Printf("Unknown command: %s", raw.Type)
	}
}

// meteringLoop emits synthesized metering frames while playing.
func (e *Engine) meteringLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(meteringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			if frame, ok := e.buildMeteringFrame(); ok {
				e.broadcast(protocol.TypeMeteringState, frame)
			}
		}
	}
}

// buildMeteringFrame synthesizes one frame from the shadow registry: a
// slow sine wobble around each audible track's commanded gain, silence
// for muted and solo-excluded tracks.
func (e *Engine) buildMeteringFrame() (protocol.MeteringState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.playing {
		return protocol.MeteringState{}, false
	}
	e.phase += 0.2

	anySolo := false
	maxID := 0
	for id, t := range e.tracks {
		if t.soloed {
			anySolo = true
		}
		if id > maxID {
			maxID = id
		}
	}

	frame := protocol.MeteringState{
		Tracks: make([]protocol.TrackMetering, maxID+1),
	}

	silence := -90.0
	for i := range frame.Tracks {
		frame.Tracks[i] = protocol.TrackMetering{PeakL: silence, PeakR: silence, RmsL: silence, RmsR: silence}
	}

	sum := 0.0
	for id, t := range e.tracks {
		g := e.effectiveGain(t, anySolo)
		if g <= 0 {
			continue
		}
		wobble := 3.0 * math.Sin(e.phase+float64(id))
		peakDb := gain.LinearToDb(g*e.masterGain) + wobble
		frame.Tracks[id] = protocol.TrackMetering{
			PeakL: peakDb,
			PeakR: peakDb - 0.5,
			RmsL:  peakDb - 6,
			RmsR:  peakDb - 6.5,
		}
		sum += g
	}

	masterDb := silence
	if sum > 0 {
		masterDb = gain.LinearToDb(math.Min(sum, 1.0) * e.masterGain)
	}
	frame.MasterPeakL = masterDb
	frame.MasterPeakR = masterDb - 0.5
	frame.MasterRmsL = masterDb - 6
	frame.MasterRmsR = masterDb - 6.5

	return frame, true
}

func (e *Engine) effectiveGain(t *track, anySolo bool) float64 {
	if t.muted || (anySolo && !t.soloed) {
		return 0
	}
	if e.busMuted[t.busID] {
		return 0
	}
	g := t.gain
	if bg, ok := e.busGain[t.busID]; ok {
		g *= bg
	}
	if v, ok := e.vcas[t.vcaID]; ok {
		if v.muted {
			return 0
		}
		g *= v.level
	}
	return g
}

// broadcast queues one message for every linked console, dropping frames
// for consoles that cannot keep up.
func (e *Engine) broadcast(msgType string, payload interface{}) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, sendChan := range e.consoles {
		select {
		case sendChan <- protocol.Message{Type: msgType, Payload: payload}:
		default:
		}
	}
}
