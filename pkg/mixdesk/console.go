// ABOUTME: High-level Console API for the mixing desk
// ABOUTME: Wires the state core, the engine link, and the meter decay engine
package mixdesk

import (
	"context"
	"fmt"
	"log"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/client"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/enginesync"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/meter"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/mixer"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/protocol"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/version"
)

// Config holds console configuration
type Config struct {
	// EngineAddr is the engine address (host:port). Ignored when
	// Offline is set.
	EngineAddr string

	// ConsoleName is the name announced in the link handshake
	ConsoleName string

	// Offline runs the console without any engine link; every desk
	// operation still works, commands are simply dropped
	Offline bool

	// RouteNewChannelsToMaster routes created channels straight to the
	// master instead of a default bus
	RouteNewChannelsToMaster bool

	// OnTransport is called when the engine transport state changes
	OnTransport func(playing bool)

	// OnError is called when link errors occur
	OnError func(error)
}

// Console is the high-level mixing desk: a desk holding the full mix
// state, an optional live link to the engine, and meter handling.
type Console struct {
	config Config

	desk   *mixer.Desk
	link   *client.Link
	meters *meter.Engine

	ctx    context.Context
	cancel context.CancelFunc
}

// NewConsole creates a console with the given configuration.
func NewConsole(config Config) (*Console, error) {
	if config.ConsoleName == "" {
		config.ConsoleName = version.Product
	}
	if !config.Offline && config.EngineAddr == "" {
		return nil, fmt.Errorf("engine address required unless offline")
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Console{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}

	var adapter enginesync.Adapter = enginesync.Nop{}
	if !config.Offline {
		c.link = client.NewLink(client.Config{
			EngineAddr: config.EngineAddr,
			Name:       config.ConsoleName,
			Version:    1,
		})
		// The link may not be up yet; writes fail until Connect, which
		// the adapter turns into deferred bindings.
		adapter = enginesync.NewRemote(c.link)
	}

	c.desk = mixer.NewDesk(mixer.Config{
		Engine:                   adapter,
		RouteNewChannelsToMaster: config.RouteNewChannelsToMaster,
	})
	c.meters = meter.New(c.desk, meter.Config{})

	return c, nil
}

// Desk exposes the mix state core. All reads return snapshots; all
// mutations forward to the engine when linked.
func (c *Console) Desk() *mixer.Desk {
	return c.desk
}

// Connect dials the engine and starts stream handling.
func (c *Console) Connect() error {
	if c.config.Offline {
		return fmt.Errorf("console is offline")
	}

	if err := c.link.Connect(); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	log.Printf("Console linked to engine at %s", c.config.EngineAddr)

	transport := c.link.Transport
	if c.config.OnTransport != nil {
		transport = c.teeTransport(c.link.Transport)
	}
	go c.meters.Run(transport, c.link.Metering)

	return nil
}

// teeTransport forwards transport frames to the meter engine while
// invoking the caller's callback for each.
func (c *Console) teeTransport(in <-chan protocol.TransportState) chan protocol.TransportState {
	out := make(chan protocol.TransportState, cap(in))
	go func() {
		defer close(out)
		for {
			select {
			case <-c.ctx.Done():
				return
			case ts, ok := <-in:
				if !ok {
					return
				}
				c.config.OnTransport(ts.IsPlaying)
				select {
				case out <- ts:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// IsConnected reports whether the engine link is up.
func (c *Console) IsConnected() bool {
	return c.link != nil && c.link.IsConnected()
}

// CreateChannel adds a source strip to the desk.
func (c *Console) CreateChannel(name string, color uint32) mixer.Channel {
	return c.desk.CreateChannel(name, color, mixer.KindAudio)
}

// SetVolume sets any node's fader, channel group links included.
func (c *Console) SetVolume(id string, v float64) {
	c.desk.SetVolume(id, v)
}

// ToggleMute flips a node's mute state.
func (c *Console) ToggleMute(id string) {
	c.desk.ToggleMute(id)
}

// ToggleSolo flips a node's solo state.
func (c *Console) ToggleSolo(id string) {
	c.desk.ToggleSolo(id)
}

// Close tears the console down and releases all resources.
func (c *Console) Close() error {
	c.cancel()
	c.meters.Stop()
	if c.link != nil {
		c.link.Close()
	}
	return nil
}
