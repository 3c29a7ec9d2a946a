// ABOUTME: The Desk owns every mix node and serializes all mutations
// ABOUTME: Snapshot accessors copy state out; one change signal per action
package mixer

import (
	"sort"
	"sync"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/enginesync"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/protocol"
)

const (
	// maxGain is unity plus console headroom, the ceiling for every
	// volume and VCA level.
	maxGain = 1.5
)

// Config holds desk construction options.
type Config struct {
	// Engine receives one-way commands. Nil means offline (no-op adapter).
	Engine enginesync.Adapter

	// RouteNewChannelsToMaster sends fresh channels straight to the
	// master sink instead of the default bus.
	RouteNewChannelsToMaster bool

	// DefaultBus names the legacy bus fresh channels route to.
	// Defaults to "sfx".
	DefaultBus string
}

// Desk is the control-plane model of the console: channels, buses, auxes,
// VCAs, groups and the master sink, keyed by id. All mutations serialize
// through its mutex; the metering and decay paths use the same lock, so
// there is exactly one writer at any moment.
type Desk struct {
	mu     sync.RWMutex
	engine enginesync.Adapter

	routeToMaster bool
	defaultBusID  string

	channels map[string]*Channel
	buses    map[string]*Bus
	auxes    map[string]*Aux
	vcas     map[string]*VCA
	groups   map[string]*Group
	master   *Master

	// Creation order, for stable snapshot listings.
	channelOrder []string
	busOrder     []string
	auxOrder     []string
	vcaOrder     []string
	groupOrder   []string

	soloed map[string]struct{}

	version uint64
	changes chan struct{}
}

// NewDesk creates a desk with the master sink and the five protected
// legacy buses in place.
func NewDesk(config Config) *Desk {
	engine := config.Engine
	if engine == nil {
		engine = enginesync.Nop{}
	}

	d := &Desk{
		engine:        engine,
		routeToMaster: config.RouteNewChannelsToMaster,
		channels:      make(map[string]*Channel),
		buses:         make(map[string]*Bus),
		auxes:         make(map[string]*Aux),
		vcas:          make(map[string]*VCA),
		groups:        make(map[string]*Group),
		master:        &Master{Volume: 1.0},
		soloed:        make(map[string]struct{}),
		changes:       make(chan struct{}, 1),
	}

	// Legacy buses use their protocol names as ids: stable, readable,
	// and naturally refused by DeleteBus.
	for _, name := range protocol.DefaultBusNames {
		d.buses[name] = &Bus{
			ID:        name,
			Name:      name,
			Volume:    1.0,
			OutputBus: MasterID,
			EngineID:  protocol.LegacyBusID(name),
			Bound:     true,
			Protected: true,
		}
		d.busOrder = append(d.busOrder, name)
	}

	d.defaultBusID = config.DefaultBus
	if _, ok := d.buses[d.defaultBusID]; !ok {
		d.defaultBusID = "sfx"
	}

	return d
}

// Changes returns the coalescing change signal. One receive may cover
// several mutations; consumers re-read snapshots on every signal.
func (d *Desk) Changes() <-chan struct{} {
	return d.changes
}

// Version returns the mutation counter.
func (d *Desk) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// notifyLocked bumps the version and fires the change signal without
// blocking. Callers hold the write lock.
func (d *Desk) notifyLocked() {
	d.version++
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

// Channel returns a snapshot of one channel.
func (d *Desk) Channel(id string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.channels[id]
	if !ok {
		return Channel{}, false
	}
	return cloneChannel(ch), true
}

// Channels returns snapshots of all channels in creation order.
func (d *Desk) Channels() []Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Channel, 0, len(d.channelOrder))
	for _, id := range d.channelOrder {
		out = append(out, cloneChannel(d.channels[id]))
	}
	return out
}

// Bus returns a snapshot of one bus.
func (d *Desk) Bus(id string) (Bus, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buses[id]
	if !ok {
		return Bus{}, false
	}
	return *b, true
}

// Buses returns snapshots of all buses in creation order; the legacy
// defaults come first.
func (d *Desk) Buses() []Bus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Bus, 0, len(d.busOrder))
	for _, id := range d.busOrder {
		out = append(out, *d.buses[id])
	}
	return out
}

// Aux returns a snapshot of one aux path.
func (d *Desk) Aux(id string) (Aux, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.auxes[id]
	if !ok {
		return Aux{}, false
	}
	return *a, true
}

// Auxes returns snapshots of all aux paths.
func (d *Desk) Auxes() []Aux {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Aux, 0, len(d.auxOrder))
	for _, id := range d.auxOrder {
		out = append(out, *d.auxes[id])
	}
	return out
}

// Vca returns a snapshot of one VCA.
func (d *Desk) Vca(id string) (VCA, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.vcas[id]
	if !ok {
		return VCA{}, false
	}
	return cloneVCA(v), true
}

// Vcas returns snapshots of all VCAs.
func (d *Desk) Vcas() []VCA {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]VCA, 0, len(d.vcaOrder))
	for _, id := range d.vcaOrder {
		out = append(out, cloneVCA(d.vcas[id]))
	}
	return out
}

// Group returns a snapshot of one group.
func (d *Desk) Group(id string) (Group, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.groups[id]
	if !ok {
		return Group{}, false
	}
	return cloneGroup(g), true
}

// Groups returns snapshots of all groups.
func (d *Desk) Groups() []Group {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Group, 0, len(d.groupOrder))
	for _, id := range d.groupOrder {
		out = append(out, cloneGroup(d.groups[id]))
	}
	return out
}

// MasterOut returns a snapshot of the master sink.
func (d *Desk) MasterOut() Master {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return *d.master
}

// SoloSet returns the soloed node ids, sorted.
func (d *Desk) SoloSet() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.soloed))
	for id := range d.soloed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsAudible reports the solo/mute bookkeeping for a node: audible iff not
// muted and either nothing is soloed or this node is. Master is always
// audible; unknown ids are not. The engine enforces actual silencing.
func (d *Desk) IsAudible(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if id == MasterID {
		return true
	}

	var muted bool
	switch {
	case d.channels[id] != nil:
		muted = d.channels[id].Muted
	case d.buses[id] != nil:
		muted = d.buses[id].Muted
	case d.auxes[id] != nil:
		muted = d.auxes[id].Muted
	default:
		return false
	}

	if muted {
		return false
	}
	if len(d.soloed) == 0 {
		return true
	}
	_, soloed := d.soloed[id]
	return soloed
}

// EffectiveGain reports a channel's fader gain after its VCA: volume
// scaled by the VCA level, zero when the channel or its VCA is muted.
func (d *Desk) EffectiveGain(channelID string) float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ch, ok := d.channels[channelID]
	if !ok || ch.Muted {
		return 0
	}
	g := ch.Volume
	if ch.VcaID != "" {
		if v, ok := d.vcas[ch.VcaID]; ok {
			if v.Muted {
				return 0
			}
			g *= v.Level
		}
	}
	return g
}
