// ABOUTME: Mix node entity definitions (channel, bus, aux, VCA, group, master)
// ABOUTME: Pure data; the Desk owns every node and all cross-references are ids
package mixer

// MasterID is the id of the singleton master sink. It is not a uuid so
// that routing targets read naturally in logs and project dumps.
const MasterID = "master"

// ChannelKind distinguishes audio sources from instrument sources.
type ChannelKind string

const (
	KindAudio      ChannelKind = "audio"
	KindInstrument ChannelKind = "instrument"
)

// LinkMode selects how a group propagates a linked value.
type LinkMode string

const (
	// LinkRelative scales members by the ratio of the change.
	LinkRelative LinkMode = "relative"
	// LinkAbsolute copies the new value to every member.
	LinkAbsolute LinkMode = "absolute"
)

// Meter holds one node's live metering state in linear amplitude.
type Meter struct {
	PeakL    float64
	PeakR    float64
	RmsL     float64
	RmsR     float64
	Clipping bool
}

// AuxSend is a channel's scaled feed into an aux path. AuxID is a
// back-reference by id; the aux node is owned by the Desk.
type AuxSend struct {
	AuxID    string
	Level    float64 // 0..1
	PreFader bool
	Enabled  bool
}

// Channel is one mixing source strip.
type Channel struct {
	ID           string
	Name         string
	Color        uint32
	Kind         ChannelKind
	Volume       float64 // linear amplitude, 0..1.5, 1.0 = unity
	Pan          float64 // -1..1
	Muted        bool
	Soloed       bool
	Armed        bool
	MonitorInput bool
	OutputBus    string // bus id or MasterID, never empty
	Sends        []AuxSend
	VcaID        string // "" when unassigned
	GroupID      string // "" when unassigned
	Meter        Meter
	EngineID     int // bound track handle; 0 = unbound, commands gate to no-ops
}

// Bus is a submix aggregation node. The five legacy default buses carry
// fixed engine ids and are protected from deletion.
type Bus struct {
	ID        string
	Name      string
	Color     uint32
	Volume    float64
	Pan       float64
	Muted     bool
	Soloed    bool
	OutputBus string // another bus id or MasterID
	Meter     Meter
	EngineID  int
	Bound     bool // engine ids include 0 (ui), so boundness is explicit
	Protected bool
}

// Aux is a send/return path channels can feed via AuxSend.
type Aux struct {
	ID        string
	Name      string
	Volume    float64
	Muted     bool
	Soloed    bool
	OutputBus string
	Meter     Meter
}

// VCA is a control-only gain multiplier over member channels. It owns no
// audio routing.
type VCA struct {
	ID       string
	Name     string
	Level    float64 // 0..1.5
	Muted    bool
	Soloed   bool
	Members  []string // channel ids, creation order
	EngineID int
}

// Group links parameter changes across member channels.
type Group struct {
	ID         string
	Name       string
	LinkMode   LinkMode
	LinkVolume bool
	LinkPan    bool
	LinkMute   bool
	LinkSolo   bool
	Members    []string
	EngineID   int
}

// Master is the singleton sink. It is never deletable and never a member
// of any solo set, VCA or group.
type Master struct {
	Volume float64
	Meter  Meter
}

// cloneChannel deep-copies a channel so snapshot accessors never leak
// the Desk-owned slice.
func cloneChannel(c *Channel) Channel {
	out := *c
	out.Sends = append([]AuxSend(nil), c.Sends...)
	return out
}

func cloneVCA(v *VCA) VCA {
	out := *v
	out.Members = append([]string(nil), v.Members...)
	return out
}

func cloneGroup(g *Group) Group {
	out := *g
	out.Members = append([]string(nil), g.Members...)
	return out
}

// removeID drops the first occurrence of id from ids.
func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
