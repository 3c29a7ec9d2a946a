// ABOUTME: One-way command boundary toward the native mix engine
// ABOUTME: Narrow adapter interface, one method per engine command
package enginesync

// Adapter is the command surface of the external mix engine. Calls are
// fire-and-forget: nothing is acknowledged and no error comes back. The
// create methods return an engine handle; 0 means the binding was
// deferred and the caller must gate later commands for that node.
type Adapter interface {
	CreateTrack(name string, colorARGB uint32, busID int) int
	DeleteTrack(trackID int)
	SetTrackVolume(trackID int, gain float64)
	SetTrackPan(trackID int, pan float64)
	SetTrackMute(trackID int, muted bool)
	SetTrackSolo(trackID int, soloed bool)
	SetBusVolume(busID int, gain float64)
	SetBusPan(busID int, pan float64)
	SetBusMute(busID int, muted bool)
	SetBusSolo(busID int, soloed bool)
	SetMasterVolume(gain float64)
	VcaCreate(name string) int
	VcaAssignTrack(vcaID, trackID int)
	VcaSetLevel(vcaID int, gain float64)
	VcaSetMute(vcaID int, muted bool)
	GroupCreate(name string) int
}

// Nop is an Adapter that drops every command and defers every binding.
// It backs offline mode and keeps the local model authoritative when no
// engine is reachable.
type Nop struct{}

func (Nop) CreateTrack(string, uint32, int) int { return 0 }
func (Nop) DeleteTrack(int)                     {}
func (Nop) SetTrackVolume(int, float64)         {}
func (Nop) SetTrackPan(int, float64)            {}
func (Nop) SetTrackMute(int, bool)              {}
func (Nop) SetTrackSolo(int, bool)              {}
func (Nop) SetBusVolume(int, float64)           {}
func (Nop) SetBusPan(int, float64)              {}
func (Nop) SetBusMute(int, bool)                {}
func (Nop) SetBusSolo(int, bool)                {}
func (Nop) SetMasterVolume(float64)             {}
func (Nop) VcaCreate(string) int                { return 0 }
func (Nop) VcaAssignTrack(int, int)             {}
func (Nop) VcaSetLevel(int, float64)            {}
func (Nop) VcaSetMute(int, bool)                {}
func (Nop) GroupCreate(string) int              { return 0 }
