// ABOUTME: Desk mutators: volume, pan, mute, solo, routing, membership
// ABOUTME: Stale ids are silent no-ops; at most one engine command per node touched
package mixer

import "fmt"

func clampGain(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxGain {
		return maxGain
	}
	return v
}

func clampPan(p float64) float64 {
	if p < -1 {
		return -1
	}
	if p > 1 {
		return 1
	}
	return p
}

func clampSendLevel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SetVolume sets a node's fader gain. Group volume linking fans the
// change out to the other members, relative or absolute per link mode.
func (d *Desk) SetVolume(id string, v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v = clampGain(v)

	if id == MasterID {
		d.master.Volume = v
		d.engine.SetMasterVolume(v)
		d.notifyLocked()
		return
	}

	if ch, ok := d.channels[id]; ok {
		old := ch.Volume
		d.applyChannelVolumeLocked(ch, v)

		if g := d.linkedGroupLocked(ch.GroupID); g != nil && g.LinkVolume {
			for _, mid := range g.Members {
				m, ok := d.channels[mid]
				if !ok || mid == id {
					continue
				}
				nv := v
				if g.LinkMode == LinkRelative && old > 1e-9 {
					nv = clampGain(m.Volume * v / old)
				}
				d.applyChannelVolumeLocked(m, nv)
			}
		}
		d.notifyLocked()
		return
	}

	if b, ok := d.buses[id]; ok {
		b.Volume = v
		if b.Bound {
			d.engine.SetBusVolume(b.EngineID, v)
		}
		d.notifyLocked()
		return
	}

	if a, ok := d.auxes[id]; ok {
		a.Volume = v
		d.notifyLocked()
	}
}

func (d *Desk) applyChannelVolumeLocked(ch *Channel, v float64) {
	ch.Volume = v
	if ch.EngineID > 0 {
		d.engine.SetTrackVolume(ch.EngineID, v)
	}
}

// SetPan sets a node's pan position. Pan linking is always absolute.
func (d *Desk) SetPan(id string, p float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p = clampPan(p)

	if ch, ok := d.channels[id]; ok {
		d.applyChannelPanLocked(ch, p)

		if g := d.linkedGroupLocked(ch.GroupID); g != nil && g.LinkPan {
			for _, mid := range g.Members {
				if m, ok := d.channels[mid]; ok && mid != id {
					d.applyChannelPanLocked(m, p)
				}
			}
		}
		d.notifyLocked()
		return
	}

	if b, ok := d.buses[id]; ok {
		b.Pan = p
		if b.Bound {
			d.engine.SetBusPan(b.EngineID, p)
		}
		d.notifyLocked()
	}
}

func (d *Desk) applyChannelPanLocked(ch *Channel, p float64) {
	ch.Pan = p
	if ch.EngineID > 0 {
		d.engine.SetTrackPan(ch.EngineID, p)
	}
}

// ToggleMute flips a node's mute flag. Mute linking copies the new state
// to the other group members.
func (d *Desk) ToggleMute(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ch, ok := d.channels[id]; ok {
		d.applyChannelMuteLocked(ch, !ch.Muted)

		if g := d.linkedGroupLocked(ch.GroupID); g != nil && g.LinkMute {
			for _, mid := range g.Members {
				if m, ok := d.channels[mid]; ok && mid != id {
					d.applyChannelMuteLocked(m, ch.Muted)
				}
			}
		}
		d.notifyLocked()
		return
	}

	if b, ok := d.buses[id]; ok {
		b.Muted = !b.Muted
		if b.Bound {
			d.engine.SetBusMute(b.EngineID, b.Muted)
		}
		d.notifyLocked()
		return
	}

	if a, ok := d.auxes[id]; ok {
		a.Muted = !a.Muted
		d.notifyLocked()
		return
	}

	if v, ok := d.vcas[id]; ok {
		v.Muted = !v.Muted
		if v.EngineID > 0 {
			d.engine.VcaSetMute(v.EngineID, v.Muted)
		}
		d.notifyLocked()
	}
}

func (d *Desk) applyChannelMuteLocked(ch *Channel, muted bool) {
	ch.Muted = muted
	if ch.EngineID > 0 {
		d.engine.SetTrackMute(ch.EngineID, muted)
	}
}

// ToggleSolo flips a node's solo flag and maintains the global solo set.
// Soloing a VCA, or a member of a solo-linked group, fans the toggle out
// as one per-member mutation each. Master never joins the solo set.
func (d *Desk) ToggleSolo(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id == MasterID {
		return
	}

	if ch, ok := d.channels[id]; ok {
		d.applyChannelSoloLocked(ch, !ch.Soloed)

		if g := d.linkedGroupLocked(ch.GroupID); g != nil && g.LinkSolo {
			for _, mid := range g.Members {
				if m, ok := d.channels[mid]; ok && mid != id {
					d.applyChannelSoloLocked(m, ch.Soloed)
				}
			}
		}
		d.notifyLocked()
		return
	}

	if b, ok := d.buses[id]; ok {
		b.Soloed = !b.Soloed
		d.setSoloMembershipLocked(id, b.Soloed)
		if b.Bound {
			d.engine.SetBusSolo(b.EngineID, b.Soloed)
		}
		d.notifyLocked()
		return
	}

	if a, ok := d.auxes[id]; ok {
		a.Soloed = !a.Soloed
		d.setSoloMembershipLocked(id, a.Soloed)
		d.notifyLocked()
		return
	}

	if v, ok := d.vcas[id]; ok {
		v.Soloed = !v.Soloed
		for _, mid := range v.Members {
			if m, ok := d.channels[mid]; ok {
				d.applyChannelSoloLocked(m, v.Soloed)
			}
		}
		d.notifyLocked()
	}
}

func (d *Desk) applyChannelSoloLocked(ch *Channel, soloed bool) {
	ch.Soloed = soloed
	d.setSoloMembershipLocked(ch.ID, soloed)
	if ch.EngineID > 0 {
		d.engine.SetTrackSolo(ch.EngineID, soloed)
	}
}

func (d *Desk) setSoloMembershipLocked(id string, soloed bool) {
	if soloed {
		d.soloed[id] = struct{}{}
	} else {
		delete(d.soloed, id)
	}
}

// ToggleArm flips a channel's record-arm flag.
func (d *Desk) ToggleArm(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch, ok := d.channels[id]; ok {
		ch.Armed = !ch.Armed
		d.notifyLocked()
	}
}

// ToggleMonitor flips a channel's input-monitor flag.
func (d *Desk) ToggleMonitor(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch, ok := d.channels[id]; ok {
		ch.MonitorInput = !ch.MonitorInput
		d.notifyLocked()
	}
}

// SetOutput routes a channel or bus into a bus or the master sink. A bus
// may not be routed into itself or any bus that already drains into it.
func (d *Desk) SetOutput(id, target string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if target != MasterID {
		if _, ok := d.buses[target]; !ok {
			return fmt.Errorf("output target %q does not exist", target)
		}
	}

	if ch, ok := d.channels[id]; ok {
		ch.OutputBus = target
		d.notifyLocked()
		return nil
	}

	if b, ok := d.buses[id]; ok {
		if d.wouldCycleLocked(id, target) {
			return fmt.Errorf("routing %q into %q would create a cycle", id, target)
		}
		b.OutputBus = target
		d.notifyLocked()
		return nil
	}

	return nil
}

// wouldCycleLocked walks the routing graph from target toward master and
// reports whether it passes through id. Every walk terminates: the graph
// was acyclic before this mutation.
func (d *Desk) wouldCycleLocked(id, target string) bool {
	cur := target
	for cur != MasterID {
		if cur == id {
			return true
		}
		b, ok := d.buses[cur]
		if !ok {
			return false
		}
		cur = b.OutputBus
	}
	return false
}

// SetVcaLevel sets a VCA's gain multiplier.
func (d *Desk) SetVcaLevel(id string, level float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.vcas[id]
	if !ok {
		return
	}
	v.Level = clampGain(level)
	if v.EngineID > 0 {
		d.engine.VcaSetLevel(v.EngineID, v.Level)
	}
	d.notifyLocked()
}

// AssignToVca moves a channel onto a VCA, leaving any previous one.
func (d *Desk) AssignToVca(channelID, vcaID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.channels[channelID]
	if !ok {
		return
	}
	v, ok := d.vcas[vcaID]
	if !ok {
		return
	}
	if ch.VcaID == vcaID {
		return
	}

	if prev, ok := d.vcas[ch.VcaID]; ok {
		prev.Members = removeID(prev.Members, channelID)
	}

	ch.VcaID = vcaID
	if !containsID(v.Members, channelID) {
		v.Members = append(v.Members, channelID)
	}
	if v.EngineID > 0 && ch.EngineID > 0 {
		d.engine.VcaAssignTrack(v.EngineID, ch.EngineID)
	}
	d.notifyLocked()
}

// RemoveFromVca detaches a channel from its VCA.
func (d *Desk) RemoveFromVca(channelID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.channels[channelID]
	if !ok || ch.VcaID == "" {
		return
	}

	if v, ok := d.vcas[ch.VcaID]; ok {
		v.Members = removeID(v.Members, channelID)
	}
	ch.VcaID = ""
	d.notifyLocked()
}

// AssignToGroup moves a channel into a link group, leaving any previous
// one.
func (d *Desk) AssignToGroup(channelID, groupID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.channels[channelID]
	if !ok {
		return
	}
	g, ok := d.groups[groupID]
	if !ok {
		return
	}
	if ch.GroupID == groupID {
		return
	}

	if prev, ok := d.groups[ch.GroupID]; ok {
		prev.Members = removeID(prev.Members, channelID)
	}

	ch.GroupID = groupID
	if !containsID(g.Members, channelID) {
		g.Members = append(g.Members, channelID)
	}
	d.notifyLocked()
}

// RemoveFromGroup detaches a channel from its link group.
func (d *Desk) RemoveFromGroup(channelID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.channels[channelID]
	if !ok || ch.GroupID == "" {
		return
	}

	if g, ok := d.groups[ch.GroupID]; ok {
		g.Members = removeID(g.Members, channelID)
	}
	ch.GroupID = ""
	d.notifyLocked()
}

// SetGroupLinks configures which parameters a group fans out.
func (d *Desk) SetGroupLinks(groupID string, volume, pan, mute, solo bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.groups[groupID]
	if !ok {
		return
	}
	g.LinkVolume, g.LinkPan, g.LinkMute, g.LinkSolo = volume, pan, mute, solo
	d.notifyLocked()
}

// SetGroupLinkMode switches a group between relative and absolute linking.
func (d *Desk) SetGroupLinkMode(groupID string, mode LinkMode) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.groups[groupID]
	if !ok {
		return
	}
	if mode != LinkRelative && mode != LinkAbsolute {
		return
	}
	g.LinkMode = mode
	d.notifyLocked()
}

// AddAuxSend adds (or retunes) a channel's send into an aux path.
func (d *Desk) AddAuxSend(channelID, auxID string, level float64, preFader bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.channels[channelID]
	if !ok {
		return
	}
	if _, ok := d.auxes[auxID]; !ok {
		return
	}

	level = clampSendLevel(level)
	for i := range ch.Sends {
		if ch.Sends[i].AuxID == auxID {
			ch.Sends[i].Level = level
			ch.Sends[i].PreFader = preFader
			d.notifyLocked()
			return
		}
	}

	ch.Sends = append(ch.Sends, AuxSend{
		AuxID:    auxID,
		Level:    level,
		PreFader: preFader,
		Enabled:  true,
	})
	d.notifyLocked()
}

// SetAuxSendLevel retunes one send.
func (d *Desk) SetAuxSendLevel(channelID, auxID string, level float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.channels[channelID]
	if !ok {
		return
	}
	for i := range ch.Sends {
		if ch.Sends[i].AuxID == auxID {
			ch.Sends[i].Level = clampSendLevel(level)
			d.notifyLocked()
			return
		}
	}
}

// SetAuxSendEnabled switches one send on or off without losing its level.
func (d *Desk) SetAuxSendEnabled(channelID, auxID string, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.channels[channelID]
	if !ok {
		return
	}
	for i := range ch.Sends {
		if ch.Sends[i].AuxID == auxID {
			ch.Sends[i].Enabled = enabled
			d.notifyLocked()
			return
		}
	}
}

// RemoveAuxSend drops a channel's send into an aux path.
func (d *Desk) RemoveAuxSend(channelID, auxID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch, ok := d.channels[channelID]
	if !ok {
		return
	}
	for i := range ch.Sends {
		if ch.Sends[i].AuxID == auxID {
			ch.Sends = append(ch.Sends[:i], ch.Sends[i+1:]...)
			d.notifyLocked()
			return
		}
	}
}

// linkedGroupLocked resolves a channel's group if it exists.
func (d *Desk) linkedGroupLocked(groupID string) *Group {
	if groupID == "" {
		return nil
	}
	return d.groups[groupID]
}
