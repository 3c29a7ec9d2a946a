// ABOUTME: Fixed legacy bus-id table shared with the native engine
// ABOUTME: Ids are wire protocol and must stay exactly as listed
package protocol

// Engine ids of the legacy default buses. The table predates this console
// and is baked into the engine; unknown names fall back to the sfx bus.
const (
	BusUI      = 0
	BusSFX     = 1
	BusMusic   = 2
	BusVO      = 3
	BusAmbient = 4
	BusMaster  = 5
)

// DefaultBusNames lists the protected legacy buses in engine-id order.
var DefaultBusNames = []string{"ui", "sfx", "music", "vo", "ambient"}

// LegacyBusID maps a legacy bus name to its engine id. Unrecognized names
// fall back to the sfx bus.
func LegacyBusID(name string) int {
	switch name {
	case "ui":
		return BusUI
	case "sfx":
		return BusSFX
	case "music":
		return BusMusic
	case "vo":
		return BusVO
	case "ambient":
		return BusAmbient
	case "master":
		return BusMaster
	default:
		return BusSFX
	}
}
