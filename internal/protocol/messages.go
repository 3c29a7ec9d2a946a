// ABOUTME: Engine link message type definitions
// ABOUTME: One-way console commands plus transport and metering streams
package protocol

import "encoding/json"

// Message is the top-level wrapper for all engine link messages.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// RawMessage is the inbound form of Message, payload left undecoded so
// the reader can route on type first.
type RawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Command type strings. These names are a compatibility surface with the
// native engine and must not be renamed.
const (
	TypeCreateTrack     = "createTrack"
	TypeDeleteTrack     = "deleteTrack"
	TypeSetTrackVolume  = "setTrackVolume"
	TypeSetTrackPan     = "setTrackPan"
	TypeSetTrackMute    = "setTrackMute"
	TypeSetTrackSolo    = "setTrackSolo"
	TypeSetBusVolume    = "setBusVolume"
	TypeSetBusPan       = "setBusPan"
	TypeSetBusMute      = "setBusMute"
	TypeSetBusSolo      = "setBusSolo"
	TypeSetMasterVolume = "setMasterVolume"
	TypeVcaCreate       = "vcaCreate"
	TypeVcaAssignTrack  = "vcaAssignTrack"
	TypeVcaSetLevel     = "vcaSetLevel"
	TypeVcaSetMute      = "vcaSetMute"
	TypeGroupCreate     = "groupCreate"
)

// Handshake and stream type strings.
const (
	TypeConsoleHello   = "console/hello"
	TypeEngineHello    = "engine/hello"
	TypeTransportState = "transport/state"
	TypeMeteringState  = "metering/state"
)

// ConsoleHello opens the link from the console side.
type ConsoleHello struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// EngineHello is the engine's response to console/hello.
type EngineHello struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// CreateTrack asks the engine to allocate a playback track for a channel.
// The track id is allocated console-side so the call never blocks.
type CreateTrack struct {
	TrackID   int    `json:"track_id"`
	Name      string `json:"name"`
	ColorARGB uint32 `json:"color_argb"`
	BusID     int    `json:"bus_engine_id"`
}

// DeleteTrack releases an engine track.
type DeleteTrack struct {
	TrackID int `json:"track_id"`
}

// SetTrackVolume sets a track's linear gain.
type SetTrackVolume struct {
	TrackID int     `json:"track_id"`
	Gain    float64 `json:"linear_gain"`
}

// SetTrackPan sets a track's pan position (-1..1).
type SetTrackPan struct {
	TrackID int     `json:"track_id"`
	Pan     float64 `json:"pan"`
}

// SetTrackMute sets a track's mute flag.
type SetTrackMute struct {
	TrackID int  `json:"track_id"`
	Muted   bool `json:"muted"`
}

// SetTrackSolo sets a track's solo flag.
type SetTrackSolo struct {
	TrackID int  `json:"track_id"`
	Soloed  bool `json:"soloed"`
}

// SetBusVolume sets a mix bus's linear gain.
type SetBusVolume struct {
	BusID int     `json:"bus_engine_id"`
	Gain  float64 `json:"linear_gain"`
}

// SetBusPan sets a mix bus's pan position.
type SetBusPan struct {
	BusID int     `json:"bus_engine_id"`
	Pan   float64 `json:"pan"`
}

// SetBusMute sets a mix bus's mute flag.
type SetBusMute struct {
	BusID int  `json:"bus_engine_id"`
	Muted bool `json:"muted"`
}

// SetBusSolo sets a mix bus's solo flag.
type SetBusSolo struct {
	BusID  int  `json:"bus_engine_id"`
	Soloed bool `json:"soloed"`
}

// SetMasterVolume sets the master sink's linear gain.
type SetMasterVolume struct {
	Gain float64 `json:"linear_gain"`
}

// VcaCreate allocates an engine-side VCA.
type VcaCreate struct {
	VcaID int    `json:"vca_engine_id"`
	Name  string `json:"name"`
}

// VcaAssignTrack attaches a track to an engine-side VCA.
type VcaAssignTrack struct {
	VcaID   int `json:"vca_engine_id"`
	TrackID int `json:"track_id"`
}

// VcaSetLevel sets an engine-side VCA's linear gain multiplier.
type VcaSetLevel struct {
	VcaID int     `json:"vca_engine_id"`
	Gain  float64 `json:"linear_gain"`
}

// VcaSetMute sets an engine-side VCA's mute flag.
type VcaSetMute struct {
	VcaID int  `json:"vca_engine_id"`
	Muted bool `json:"muted"`
}

// GroupCreate allocates an engine-side link group.
type GroupCreate struct {
	GroupID int    `json:"group_engine_id"`
	Name    string `json:"name"`
}

// TransportState reports whether the engine transport is rolling.
type TransportState struct {
	IsPlaying bool `json:"is_playing"`
}

// TrackMetering carries one track's meter readings in dBFS.
type TrackMetering struct {
	PeakL float64 `json:"peak_l"`
	PeakR float64 `json:"peak_r"`
	RmsL  float64 `json:"rms_l"`
	RmsR  float64 `json:"rms_r"`
}

// MeteringState is one metering frame from the engine. Tracks are indexed
// by bound track handle; entries for unbound handles are skipped.
type MeteringState struct {
	MasterPeakL float64         `json:"master_peak_l"`
	MasterPeakR float64         `json:"master_peak_r"`
	MasterRmsL  float64         `json:"master_rms_l"`
	MasterRmsR  float64         `json:"master_rms_r"`
	Tracks      []TrackMetering `json:"tracks"`
}
