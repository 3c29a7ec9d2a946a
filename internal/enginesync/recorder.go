// ABOUTME: Recording adapter for tests and link diagnostics
// ABOUTME: Captures every engine command in call order
package enginesync

import (
	"fmt"
	"sync"
)

// Recorder is an Adapter that journals every command it receives. Handles
// are allocated the same way Remote allocates them, so the recorder can
// stand in for a live engine in tests.
type Recorder struct {
	mu        sync.Mutex
	calls     []string
	nextTrack int
	nextVca   int
	nextGroup int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{nextTrack: 1, nextVca: 1, nextGroup: 1}
}

// Calls returns a copy of the journal.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset clears the journal but keeps handle counters.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) record(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *Recorder) CreateTrack(name string, colorARGB uint32, busID int) int {
	r.mu.Lock()
	id := r.nextTrack
	r.nextTrack++
	r.calls = append(r.calls, fmt.Sprintf("createTrack(%s,%d,%d)=%d", name, colorARGB, busID, id))
	r.mu.Unlock()
	return id
}

func (r *Recorder) DeleteTrack(trackID int) {
	r.record("deleteTrack(%d)", trackID)
}

func (r *Recorder) SetTrackVolume(trackID int, gain float64) {
	r.record("setTrackVolume(%d,%.3f)", trackID, gain)
}

func (r *Recorder) SetTrackPan(trackID int, pan float64) {
	r.record("setTrackPan(%d,%.3f)", trackID, pan)
}

func (r *Recorder) SetTrackMute(trackID int, muted bool) {
	r.record("setTrackMute(%d,%t)", trackID, muted)
}

func (r *Recorder) SetTrackSolo(trackID int, soloed bool) {
	r.record("setTrackSolo(%d,%t)", trackID, soloed)
}

func (r *Recorder) SetBusVolume(busID int, gain float64) {
	r.record("setBusVolume(%d,%.3f)", busID, gain)
}

func (r *Recorder) SetBusPan(busID int, pan float64) {
	r.record("setBusPan(%d,%.3f)", busID, pan)
}

func (r *Recorder) SetBusMute(busID int, muted bool) {
	r.record("setBusMute(%d,%t)", busID, muted)
}

func (r *Recorder) SetBusSolo(busID int, soloed bool) {
	r.record("setBusSolo(%d,%t)", busID, soloed)
}

func (r *Recorder) SetMasterVolume(gain float64) {
	r.record("setMasterVolume(%.3f)", gain)
}

func (r *Recorder) VcaCreate(name string) int {
	r.mu.Lock()
	id := r.nextVca
	r.nextVca++
	r.calls = append(r.calls, fmt.Sprintf("vcaCreate(%s)=%d", name, id))
	r.mu.Unlock()
	return id
}

func (r *Recorder) VcaAssignTrack(vcaID, trackID int) {
	r.record("vcaAssignTrack(%d,%d)", vcaID, trackID)
}

func (r *Recorder) VcaSetLevel(vcaID int, gain float64) {
	r.record("vcaSetLevel(%d,%.3f)", vcaID, gain)
}

func (r *Recorder) VcaSetMute(vcaID int, muted bool) {
	r.record("vcaSetMute(%d,%t)", vcaID, muted)
}

func (r *Recorder) GroupCreate(name string) int {
	r.mu.Lock()
	id := r.nextGroup
	r.nextGroup++
	r.calls = append(r.calls, fmt.Sprintf("groupCreate(%s)=%d", name, id))
	r.mu.Unlock()
	return id
}
