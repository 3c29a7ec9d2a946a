// ABOUTME: Tests for solo bookkeeping, audibility, and link fan-out
// ABOUTME: Covers the global solo set and VCA/group member propagation
package mixer

import (
	"testing"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/enginesync"
)

func TestSoloSetBookkeeping(t *testing.T) {
	d, _ := newTestDesk()
	a := d.CreateChannel("a", 0, KindAudio)

	d.ToggleSolo(a.ID)
	if got := d.SoloSet(); len(got) != 1 || got[0] != a.ID {
		t.Errorf("solo set = %v, want [%s]", got, a.ID)
	}

	d.ToggleSolo(a.ID)
	if got := d.SoloSet(); len(got) != 0 {
		t.Errorf("solo set = %v, want empty", got)
	}
}

func TestAudibilityScenario(t *testing.T) {
	d, _ := newTestDesk()
	a := d.CreateChannel("a", 0, KindAudio)
	b := d.CreateChannel("b", 0, KindAudio)
	c := d.CreateChannel("c", 0, KindAudio)

	d.ToggleMute(a.ID)
	d.ToggleSolo(b.ID)

	if d.IsAudible(a.ID) {
		t.Error("muted channel must not be audible")
	}
	if !d.IsAudible(b.ID) {
		t.Error("soloed channel must be audible")
	}
	if d.IsAudible(c.ID) {
		t.Error("bystander must not be audible while the solo set is non-empty")
	}
	if !d.IsAudible(MasterID) {
		t.Error("master is unaffected by solo")
	}
}

func TestAudibilityWithEmptySoloSet(t *testing.T) {
	d, _ := newTestDesk()
	a := d.CreateChannel("a", 0, KindAudio)

	if !d.IsAudible(a.ID) {
		t.Error("unmuted channel with empty solo set must be audible")
	}
	if d.IsAudible("no-such-node") {
		t.Error("unknown ids are not audible")
	}
}

func TestMasterNeverJoinsSoloSet(t *testing.T) {
	d, _ := newTestDesk()

	d.ToggleSolo(MasterID)
	if got := d.SoloSet(); len(got) != 0 {
		t.Errorf("master joined the solo set: %v", got)
	}
}

func TestBusSoloForwardsEngineCommand(t *testing.T) {
	d, rec := newTestDesk()
	rec.Reset()

	d.ToggleSolo("music")

	if got := d.SoloSet(); len(got) != 1 || got[0] != "music" {
		t.Errorf("solo set = %v, want [music]", got)
	}
	calls := rec.Calls()
	if len(calls) != 1 || calls[0] != "setBusSolo(2,true)" {
		t.Errorf("unexpected engine calls: %v", calls)
	}
}

func TestVcaSoloFansOutToMembers(t *testing.T) {
	d, rec := newTestDesk()
	a := d.CreateChannel("a", 0, KindAudio)
	b := d.CreateChannel("b", 0, KindAudio)
	v := d.CreateVca("band")
	d.AssignToVca(a.ID, v.ID)
	d.AssignToVca(b.ID, v.ID)
	rec.Reset()

	d.ToggleSolo(v.ID)

	got := d.SoloSet()
	if len(got) != 2 {
		t.Fatalf("solo set = %v, want both members", got)
	}
	chA, _ := d.Channel(a.ID)
	chB, _ := d.Channel(b.ID)
	if !chA.Soloed || !chB.Soloed {
		t.Error("members not soloed by VCA fan-out")
	}

	// One engine command per member, nothing for the VCA itself.
	calls := rec.Calls()
	if len(calls) != 2 || calls[0] != "setTrackSolo(1,true)" || calls[1] != "setTrackSolo(2,true)" {
		t.Errorf("unexpected engine calls: %v", calls)
	}

	d.ToggleSolo(v.ID)
	if got := d.SoloSet(); len(got) != 0 {
		t.Errorf("solo set after un-solo = %v, want empty", got)
	}
}

func TestGroupSoloLinkFansOut(t *testing.T) {
	d, _ := newTestDesk()
	a := d.CreateChannel("a", 0, KindAudio)
	b := d.CreateChannel("b", 0, KindAudio)
	g := d.CreateGroup("stems", LinkRelative)
	d.AssignToGroup(a.ID, g.ID)
	d.AssignToGroup(b.ID, g.ID)

	d.ToggleSolo(a.ID)

	got := d.SoloSet()
	if len(got) != 2 {
		t.Errorf("solo set = %v, want both group members", got)
	}

	// With the link off the toggle stays local.
	d.ToggleSolo(a.ID) // clears both
	d.SetGroupLinks(g.ID, true, false, true, false)
	d.ToggleSolo(a.ID)

	got = d.SoloSet()
	if len(got) != 1 || got[0] != a.ID {
		t.Errorf("solo set = %v, want [%s]", got, a.ID)
	}
}

func TestGroupMuteLinkCopiesState(t *testing.T) {
	d, _ := newTestDesk()
	a := d.CreateChannel("a", 0, KindAudio)
	b := d.CreateChannel("b", 0, KindAudio)
	g := d.CreateGroup("stems", LinkAbsolute)
	d.AssignToGroup(a.ID, g.ID)
	d.AssignToGroup(b.ID, g.ID)

	d.ToggleMute(a.ID)

	chB, _ := d.Channel(b.ID)
	if !chB.Muted {
		t.Error("mute link did not copy to member")
	}

	d.ToggleMute(b.ID)
	chA, _ := d.Channel(a.ID)
	if chA.Muted {
		t.Error("unmute did not propagate back")
	}
}

func TestGroupVolumeLinkRelative(t *testing.T) {
	d, _ := newTestDesk()
	a := d.CreateChannel("a", 0, KindAudio)
	b := d.CreateChannel("b", 0, KindAudio)
	g := d.CreateGroup("stems", LinkRelative)
	d.AssignToGroup(a.ID, g.ID)
	d.AssignToGroup(b.ID, g.ID)

	d.SetVolume(b.ID, 0.5) // halves b (and a, linked relative from 1.0)
	d.SetVolume(a.ID, 0.25)

	chA, _ := d.Channel(a.ID)
	chB, _ := d.Channel(b.ID)
	if chA.Volume != 0.25 {
		t.Errorf("a volume = %v, want 0.25", chA.Volume)
	}
	// b follows the same halving ratio: 0.5 * (0.25/0.5) = 0.25.
	if chB.Volume != 0.25 {
		t.Errorf("b volume = %v, want 0.25", chB.Volume)
	}
}

func TestGroupVolumeLinkAbsolute(t *testing.T) {
	d, _ := newTestDesk()
	a := d.CreateChannel("a", 0, KindAudio)
	b := d.CreateChannel("b", 0, KindAudio)
	g := d.CreateGroup("stems", LinkAbsolute)
	d.AssignToGroup(a.ID, g.ID)
	d.AssignToGroup(b.ID, g.ID)
	d.SetVolume(b.ID, 0.9)

	d.SetVolume(a.ID, 0.3)

	chB, _ := d.Channel(b.ID)
	if chB.Volume != 0.3 {
		t.Errorf("b volume = %v, want absolute copy 0.3", chB.Volume)
	}
}

func TestGroupPanLinkOffByDefault(t *testing.T) {
	d, _ := newTestDesk()
	a := d.CreateChannel("a", 0, KindAudio)
	b := d.CreateChannel("b", 0, KindAudio)
	g := d.CreateGroup("stems", LinkAbsolute)
	d.AssignToGroup(a.ID, g.ID)
	d.AssignToGroup(b.ID, g.ID)

	d.SetPan(a.ID, -0.5)

	chB, _ := d.Channel(b.ID)
	if chB.Pan != 0 {
		t.Errorf("pan linked while LinkPan is off: %v", chB.Pan)
	}

	d.SetGroupLinks(g.ID, true, true, true, true)
	d.SetPan(a.ID, 0.75)
	chB, _ = d.Channel(b.ID)
	if chB.Pan != 0.75 {
		t.Errorf("b pan = %v, want 0.75", chB.Pan)
	}
}

func TestSoloSurvivesAdapterAbsence(t *testing.T) {
	d := NewDesk(Config{Engine: enginesync.Nop{}})
	a := d.CreateChannel("a", 0, KindAudio)

	d.ToggleSolo(a.ID)
	if got := d.SoloSet(); len(got) != 1 {
		t.Errorf("solo set = %v, want one entry", got)
	}
}
