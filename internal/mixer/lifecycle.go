// ABOUTME: Node creation and deletion with cascade cleanup
// ABOUTME: Deletes prune every back-reference in the same transaction
package mixer

import (
	"fmt"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/protocol"
	"github.com/google/uuid"
)

// CreateChannel allocates a channel routed per desk configuration and
// asks the engine for a track binding. A zero engine handle means the
// binding was deferred; the channel still works locally.
func (d *Desk) CreateChannel(name string, color uint32, kind ChannelKind) Channel {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := d.defaultBusID
	busEngineID := protocol.LegacyBusID(d.defaultBusID)
	if d.routeToMaster {
		out = MasterID
		busEngineID = protocol.BusMaster
	}

	ch := &Channel{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     color,
		Kind:      kind,
		Volume:    1.0,
		OutputBus: out,
		EngineID:  d.engine.CreateTrack(name, color, busEngineID),
	}

	d.channels[ch.ID] = ch
	d.channelOrder = append(d.channelOrder, ch.ID)
	d.notifyLocked()
	return cloneChannel(ch)
}

// CreateBus allocates a user bus routed to master. User buses carry no
// engine binding; only the legacy defaults exist engine-side.
func (d *Desk) CreateBus(name string, color uint32) Bus {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := &Bus{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     color,
		Volume:    1.0,
		OutputBus: MasterID,
	}

	d.buses[b.ID] = b
	d.busOrder = append(d.busOrder, b.ID)
	d.notifyLocked()
	return *b
}

// CreateAux allocates an aux send/return path routed to master.
func (d *Desk) CreateAux(name string) Aux {
	d.mu.Lock()
	defer d.mu.Unlock()

	a := &Aux{
		ID:        uuid.New().String(),
		Name:      name,
		Volume:    1.0,
		OutputBus: MasterID,
	}

	d.auxes[a.ID] = a
	d.auxOrder = append(d.auxOrder, a.ID)
	d.notifyLocked()
	return *a
}

// CreateVca allocates a control-only VCA.
func (d *Desk) CreateVca(name string) VCA {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := &VCA{
		ID:       uuid.New().String(),
		Name:     name,
		Level:    1.0,
		EngineID: d.engine.VcaCreate(name),
	}

	d.vcas[v.ID] = v
	d.vcaOrder = append(d.vcaOrder, v.ID)
	d.notifyLocked()
	return cloneVCA(v)
}

// CreateGroup allocates a link group. Volume, mute and solo linking start
// on; pan linking starts off.
func (d *Desk) CreateGroup(name string, mode LinkMode) Group {
	d.mu.Lock()
	defer d.mu.Unlock()

	if mode != LinkRelative && mode != LinkAbsolute {
		mode = LinkRelative
	}

	g := &Group{
		ID:         uuid.New().String(),
		Name:       name,
		LinkMode:   mode,
		LinkVolume: true,
		LinkMute:   true,
		LinkSolo:   true,
		EngineID:   d.engine.GroupCreate(name),
	}

	d.groups[g.ID] = g
	d.groupOrder = append(d.groupOrder, g.ID)
	d.notifyLocked()
	return cloneGroup(g)
}

// DeleteChannel removes a channel and every back-reference to it: the
// solo set, VCA and group member lists, and aux sends on other channels
// that target it. Already-deleted ids are a silent no-op.
func (d *Desk) DeleteChannel(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.channels[id]
	if !ok {
		return
	}

	if ch.EngineID > 0 {
		d.engine.DeleteTrack(ch.EngineID)
	}

	delete(d.soloed, id)
	for _, v := range d.vcas {
		v.Members = removeID(v.Members, id)
	}
	for _, g := range d.groups {
		g.Members = removeID(g.Members, id)
	}
	d.stripSendsLocked(id)

	delete(d.channels, id)
	d.channelOrder = removeID(d.channelOrder, id)
	d.notifyLocked()
}

// DeleteBus removes a user bus after rerouting every dependent channel
// and bus to master. The legacy defaults are refused.
func (d *Desk) DeleteBus(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.buses[id]
	if !ok {
		return nil
	}
	if b.Protected {
		return fmt.Errorf("bus %q is protected", b.Name)
	}

	for _, ch := range d.channels {
		if ch.OutputBus == id {
			ch.OutputBus = MasterID
		}
	}
	for _, other := range d.buses {
		if other.OutputBus == id {
			other.OutputBus = MasterID
		}
	}

	delete(d.soloed, id)
	delete(d.buses, id)
	d.busOrder = removeID(d.busOrder, id)
	d.notifyLocked()
	return nil
}

// DeleteAux removes an aux path and strips matching sends from every
// channel.
func (d *Desk) DeleteAux(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.auxes[id]; !ok {
		return
	}

	d.stripSendsLocked(id)
	delete(d.soloed, id)
	delete(d.auxes, id)
	d.auxOrder = removeID(d.auxOrder, id)
	d.notifyLocked()
}

// DeleteVca removes a VCA and clears the back-reference on every member.
func (d *Desk) DeleteVca(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.vcas[id]
	if !ok {
		return
	}

	for _, mid := range v.Members {
		if ch, ok := d.channels[mid]; ok {
			ch.VcaID = ""
		}
	}

	delete(d.soloed, id)
	delete(d.vcas, id)
	d.vcaOrder = removeID(d.vcaOrder, id)
	d.notifyLocked()
}

// DeleteGroup removes a group and clears the back-reference on every
// member.
func (d *Desk) DeleteGroup(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.groups[id]
	if !ok {
		return
	}

	for _, mid := range g.Members {
		if ch, ok := d.channels[mid]; ok {
			ch.GroupID = ""
		}
	}

	delete(d.groups, id)
	d.groupOrder = removeID(d.groupOrder, id)
	d.notifyLocked()
}

// stripSendsLocked removes every aux send targeting id from every channel.
func (d *Desk) stripSendsLocked(id string) {
	for _, ch := range d.channels {
		kept := ch.Sends[:0]
		for _, s := range ch.Sends {
			if s.AuxID != id {
				kept = append(kept, s)
			}
		}
		ch.Sends = kept
	}
}
