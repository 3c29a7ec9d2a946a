// ABOUTME: Remote adapter encoding engine commands as link messages
// ABOUTME: Allocates handles console-side so creation never blocks
package enginesync

import (
	"log"
	"sync"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/protocol"
)

// Sender writes one fire-and-forget message to the engine link.
type Sender interface {
	Send(msgType string, payload interface{}) error
}

// Remote implements Adapter over an engine link. Track, VCA and group
// handles are allocated console-side, starting at 1, so that handle 0
// stays reserved for "unbound". A failed write on a create command
// reports handle 0 (binding deferred); failed writes on plain setters
// are logged and dropped, the local model stays authoritative.
type Remote struct {
	sender Sender

	mu        sync.Mutex
	nextTrack int
	nextVca   int
	nextGroup int
}

// NewRemote creates a remote adapter writing through sender.
func NewRemote(sender Sender) *Remote {
	return &Remote{
		sender:    sender,
		nextTrack: 1,
		nextVca:   1,
		nextGroup: 1,
	}
}

func (r *Remote) send(msgType string, payload interface{}) bool {
	if err := r.sender.Send(msgType, payload); err != nil {
		log.Printf("engine command %s dropped: %v", msgType, err)
		return false
	}
	return true
}

// CreateTrack allocates a track handle and announces it to the engine.
func (r *Remote) CreateTrack(name string, colorARGB uint32, busID int) int {
	r.mu.Lock()
	id := r.nextTrack
	r.nextTrack++
	r.mu.Unlock()

	if !r.send(protocol.TypeCreateTrack, protocol.CreateTrack{
		TrackID:   id,
		Name:      name,
		ColorARGB: colorARGB,
		BusID:     busID,
	}) {
		return 0
	}
	return id
}

func (r *Remote) DeleteTrack(trackID int) {
	r.send(protocol.TypeDeleteTrack, protocol.DeleteTrack{TrackID: trackID})
}

func (r *Remote) SetTrackVolume(trackID int, gain float64) {
	r.send(protocol.TypeSetTrackVolume, protocol.SetTrackVolume{TrackID: trackID, Gain: gain})
}

func (r *Remote) SetTrackPan(trackID int, pan float64) {
	r.send(protocol.TypeSetTrackPan, protocol.SetTrackPan{TrackID: trackID, Pan: pan})
}

func (r *Remote) SetTrackMute(trackID int, muted bool) {
	r.send(protocol.TypeSetTrackMute, protocol.SetTrackMute{TrackID: trackID, Muted: muted})
}

func (r *Remote) SetTrackSolo(trackID int, soloed bool) {
	r.send(protocol.TypeSetTrackSolo, protocol.SetTrackSolo{TrackID: trackID, Soloed: soloed})
}

func (r *Remote) SetBusVolume(busID int, gain float64) {
	r.send(protocol.TypeSetBusVolume, protocol.SetBusVolume{BusID: busID, Gain: gain})
}

func (r *Remote) SetBusPan(busID int, pan float64) {
	r.send(protocol.TypeSetBusPan, protocol.SetBusPan{BusID: busID, Pan: pan})
}

func (r *Remote) SetBusMute(busID int, muted bool) {
	r.send(protocol.TypeSetBusMute, protocol.SetBusMute{BusID: busID, Muted: muted})
}

func (r *Remote) SetBusSolo(busID int, soloed bool) {
	r.send(protocol.TypeSetBusSolo, protocol.SetBusSolo{BusID: busID, Soloed: soloed})
}

func (r *Remote) SetMasterVolume(gain float64) {
	r.send(protocol.TypeSetMasterVolume, protocol.SetMasterVolume{Gain: gain})
}

// VcaCreate allocates a VCA handle and announces it to the engine.
func (r *Remote) VcaCreate(name string) int {
	r.mu.Lock()
	id := r.nextVca
	r.nextVca++
	r.mu.Unlock()

	if !r.send(protocol.TypeVcaCreate, protocol.VcaCreate{VcaID: id, Name: name}) {
		return 0
	}
	return id
}

func (r *Remote) VcaAssignTrack(vcaID, trackID int) {
	r.send(protocol.TypeVcaAssignTrack, protocol.VcaAssignTrack{VcaID: vcaID, TrackID: trackID})
}

func (r *Remote) VcaSetLevel(vcaID int, gain float64) {
	r.send(protocol.TypeVcaSetLevel, protocol.VcaSetLevel{VcaID: vcaID, Gain: gain})
}

func (r *Remote) VcaSetMute(vcaID int, muted bool) {
	r.send(protocol.TypeVcaSetMute, protocol.VcaSetMute{VcaID: vcaID, Muted: muted})
}

// GroupCreate allocates a group handle and announces it to the engine.
func (r *Remote) GroupCreate(name string) int {
	r.mu.Lock()
	id := r.nextGroup
	r.nextGroup++
	r.mu.Unlock()

	if !r.send(protocol.TypeGroupCreate, protocol.GroupCreate{GroupID: id, Name: name}) {
		return 0
	}
	return id
}
