// ABOUTME: mDNS discovery for mix engines on the local network
// ABOUTME: Engines advertise, consoles browse
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	engineService = "_mixdesk-engine._tcp"

	// One query round waits this long for responders, then the loop
	// pauses before asking again.
	browseTimeout = 2 * time.Second
	browsePause   = 3 * time.Second
)

// Config holds discovery configuration.
type Config struct {
	ServiceName string
	Port        int
	EngineMode  bool // if true, advertise as an engine instead of browsing
}

// Manager handles mDNS operations.
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	engines chan *EngineInfo
}

// EngineInfo describes a discovered mix engine.
type EngineInfo struct {
	Name string
	Host string
	Port int
}

// NewManager creates a discovery manager.
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		engines: make(chan *EngineInfo, 10),
	}
}

// Advertise announces this engine via mDNS.
func (m *Manager) Advertise() error {
	ips, err := advertiseIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		engineService,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=/mixdesk"},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising engine %s on port %d", m.config.ServiceName, m.config.Port)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for mix engines.
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop issues query rounds until the manager stops. One collector
// goroutine drains every round, so duplicate responders across rounds
// surface exactly once.
func (m *Manager) browseLoop() {
	entries := make(chan *mdns.ServiceEntry, 16)
	go m.collect(entries)
	defer close(entries)

	for {
		params := &mdns.QueryParam{
			Service: engineService,
			Domain:  "local",
			Timeout: browseTimeout,
			Entries: entries,
		}
		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS browse failed: %v", err)
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(browsePause):
		}
	}
}

func (m *Manager) collect(entries <-chan *mdns.ServiceEntry) {
	seen := make(map[string]bool)

	for entry := range entries {
		addr := entry.AddrV4
		if addr == nil {
			addr = entry.Addr
		}
		if addr == nil || entry.Port == 0 {
			continue
		}

		key := fmt.Sprintf("%s:%d", addr, entry.Port)
		if seen[key] {
			continue
		}
		seen[key] = true

		engine := &EngineInfo{
			Name: instanceName(entry.Name),
			Host: addr.String(),
			Port: entry.Port,
		}

		log.Printf("Discovered engine: %s at %s:%d", engine.Name, engine.Host, engine.Port)

		select {
		case m.engines <- engine:
		case <-m.ctx.Done():
			return
		}
	}
}

// instanceName strips the service and domain labels from a full mDNS
// entry name, leaving the human-readable instance label.
func instanceName(full string) string {
	if i := strings.Index(full, "."+engineService); i >= 0 {
		full = full[:i]
	}
	return strings.ReplaceAll(full, "\\ ", " ")
}

// Engines returns the channel of discovered engines.
func (m *Manager) Engines() <-chan *EngineInfo {
	return m.engines
}

// Stop stops the discovery manager.
func (m *Manager) Stop() {
	m.cancel()
}

// advertiseIPs picks the routable IPv4 addresses to publish in the
// mDNS records.
func advertiseIPs() ([]net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.To4() == nil {
			continue
		}
		ips = append(ips, ipnet.IP)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no routable IPv4 address found")
	}
	return ips, nil
}
