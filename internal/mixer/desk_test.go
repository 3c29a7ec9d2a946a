// ABOUTME: Tests for desk lifecycle, routing, and engine command gating
// ABOUTME: Covers cascade deletes, protected buses, and cycle rejection
package mixer

import (
	"strings"
	"testing"

	"github.com/Mixdesk-Audio/mixdesk-go/internal/enginesync"
	"github.com/Mixdesk-Audio/mixdesk-go/internal/gain"
)

func newTestDesk() (*Desk, *enginesync.Recorder) {
	rec := enginesync.NewRecorder()
	return NewDesk(Config{Engine: rec}), rec
}

func TestNewDeskHasLegacyBuses(t *testing.T) {
	d, _ := newTestDesk()

	buses := d.Buses()
	if len(buses) != 5 {
		t.Fatalf("expected 5 legacy buses, got %d", len(buses))
	}

	wantIDs := map[string]int{"ui": 0, "sfx": 1, "music": 2, "vo": 3, "ambient": 4}
	for _, b := range buses {
		engineID, ok := wantIDs[b.ID]
		if !ok {
			t.Errorf("unexpected bus %q", b.ID)
			continue
		}
		if b.EngineID != engineID || !b.Bound || !b.Protected {
			t.Errorf("bus %q: engineID=%d bound=%t protected=%t", b.ID, b.EngineID, b.Bound, b.Protected)
		}
		if b.OutputBus != MasterID {
			t.Errorf("bus %q routes to %q, want master", b.ID, b.OutputBus)
		}
	}
}

func TestCreateChannelRoutesToDefaultBus(t *testing.T) {
	d, rec := newTestDesk()

	ch := d.CreateChannel("kick", 0xFFCC0000, KindAudio)
	if ch.OutputBus != "sfx" {
		t.Errorf("expected default bus sfx, got %q", ch.OutputBus)
	}
	if ch.Volume != 1.0 || ch.EngineID != 1 {
		t.Errorf("unexpected defaults: volume=%v engineID=%d", ch.Volume, ch.EngineID)
	}

	calls := rec.Calls()
	if len(calls) != 1 || !strings.HasPrefix(calls[0], "createTrack(kick,") {
		t.Errorf("expected one createTrack call, got %v", calls)
	}
}

func TestCreateChannelRoutesToMasterWhenConfigured(t *testing.T) {
	d := NewDesk(Config{Engine: enginesync.NewRecorder(), RouteNewChannelsToMaster: true})

	ch := d.CreateChannel("kick", 0, KindAudio)
	if ch.OutputBus != MasterID {
		t.Errorf("expected master routing, got %q", ch.OutputBus)
	}
}

func TestDeleteBusReroutesToMaster(t *testing.T) {
	d, _ := newTestDesk()

	x := d.CreateBus("drums", 0)
	a := d.CreateChannel("kick", 0, KindAudio)
	b := d.CreateChannel("snare", 0, KindAudio)
	if err := d.SetOutput(a.ID, x.ID); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}
	if err := d.SetOutput(b.ID, x.ID); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}

	if err := d.DeleteBus(x.ID); err != nil {
		t.Fatalf("DeleteBus: %v", err)
	}

	for _, id := range []string{a.ID, b.ID} {
		ch, ok := d.Channel(id)
		if !ok {
			t.Fatalf("channel %s vanished", id)
		}
		if ch.OutputBus != MasterID {
			t.Errorf("channel %s routes to %q, want master", id, ch.OutputBus)
		}
	}

	if _, ok := d.Bus(x.ID); ok {
		t.Error("deleted bus still present")
	}
}

func TestDeleteBusRefusesProtected(t *testing.T) {
	d, _ := newTestDesk()

	if err := d.DeleteBus("sfx"); err == nil {
		t.Fatal("expected protected-bus error")
	}
	if _, ok := d.Bus("sfx"); !ok {
		t.Error("protected bus was deleted")
	}

	// Stale ids are silent no-ops.
	if err := d.DeleteBus("no-such-bus"); err != nil {
		t.Errorf("stale delete returned error: %v", err)
	}
}

func TestDeleteChannelCascades(t *testing.T) {
	d, rec := newTestDesk()

	c := d.CreateChannel("vox", 0, KindAudio)
	other := d.CreateChannel("guitar", 0, KindAudio)
	v := d.CreateVca("band")
	g := d.CreateGroup("stems", LinkRelative)
	verb := d.CreateAux("verb")

	d.AssignToVca(c.ID, v.ID)
	d.AssignToGroup(c.ID, g.ID)
	d.AddAuxSend(other.ID, verb.ID, 0.4, false)
	d.ToggleSolo(c.ID)

	rec.Reset()
	d.DeleteChannel(c.ID)

	if got := d.SoloSet(); len(got) != 0 {
		t.Errorf("solo set not pruned: %v", got)
	}
	vca, _ := d.Vca(v.ID)
	if containsID(vca.Members, c.ID) {
		t.Error("VCA still references deleted channel")
	}
	grp, _ := d.Group(g.ID)
	if containsID(grp.Members, c.ID) {
		t.Error("group still references deleted channel")
	}
	if _, ok := d.Channel(c.ID); ok {
		t.Error("channel still present after delete")
	}

	calls := rec.Calls()
	if len(calls) != 1 || calls[0] != "deleteTrack(1)" {
		t.Errorf("expected single deleteTrack, got %v", calls)
	}

	// Deleting again is a silent no-op.
	before := d.Version()
	d.DeleteChannel(c.ID)
	if d.Version() != before {
		t.Error("stale delete fired a notification")
	}
}

func TestDeleteAuxStripsSends(t *testing.T) {
	d, _ := newTestDesk()

	ch := d.CreateChannel("vox", 0, KindAudio)
	verb := d.CreateAux("verb")
	d.AddAuxSend(ch.ID, verb.ID, 0.5, true)

	d.DeleteAux(verb.ID)

	got, _ := d.Channel(ch.ID)
	if len(got.Sends) != 0 {
		t.Errorf("expected sends stripped, got %v", got.Sends)
	}
	if _, ok := d.Aux(verb.ID); ok {
		t.Error("aux still present")
	}
}

func TestDeleteVcaClearsBackReferences(t *testing.T) {
	d, _ := newTestDesk()

	ch := d.CreateChannel("vox", 0, KindAudio)
	v := d.CreateVca("band")
	d.AssignToVca(ch.ID, v.ID)

	d.DeleteVca(v.ID)

	got, _ := d.Channel(ch.ID)
	if got.VcaID != "" {
		t.Errorf("channel still references deleted VCA: %q", got.VcaID)
	}
}

func TestDeleteGroupClearsBackReferences(t *testing.T) {
	d, _ := newTestDesk()

	ch := d.CreateChannel("vox", 0, KindAudio)
	g := d.CreateGroup("stems", LinkAbsolute)
	d.AssignToGroup(ch.ID, g.ID)

	d.DeleteGroup(g.ID)

	got, _ := d.Channel(ch.ID)
	if got.GroupID != "" {
		t.Errorf("channel still references deleted group: %q", got.GroupID)
	}
}

func TestSetOutputRejectsCycles(t *testing.T) {
	d, _ := newTestDesk()

	a := d.CreateBus("a", 0)
	b := d.CreateBus("b", 0)
	if err := d.SetOutput(b.ID, a.ID); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}

	if err := d.SetOutput(a.ID, b.ID); err == nil {
		t.Error("expected cycle rejection")
	}
	if err := d.SetOutput(a.ID, a.ID); err == nil {
		t.Error("expected self-routing rejection")
	}

	// The failed attempts must not have changed routing.
	bus, _ := d.Bus(a.ID)
	if bus.OutputBus != MasterID {
		t.Errorf("bus a routes to %q, want master", bus.OutputBus)
	}
}

func TestSetVolumeForwardsWhenBound(t *testing.T) {
	d, rec := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)
	rec.Reset()

	d.SetVolume(ch.ID, 0.5)

	calls := rec.Calls()
	if len(calls) != 1 || calls[0] != "setTrackVolume(1,0.500)" {
		t.Errorf("expected one volume command, got %v", calls)
	}

	got, _ := d.Channel(ch.ID)
	if got.Volume != 0.5 {
		t.Errorf("volume = %v, want 0.5", got.Volume)
	}
}

func TestSetVolumeClampsRange(t *testing.T) {
	d, _ := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)

	d.SetVolume(ch.ID, 9.0)
	got, _ := d.Channel(ch.ID)
	if got.Volume != 1.5 {
		t.Errorf("volume = %v, want clamp to 1.5", got.Volume)
	}

	d.SetVolume(ch.ID, -2.0)
	got, _ = d.Channel(ch.ID)
	if got.Volume != 0 {
		t.Errorf("volume = %v, want clamp to 0", got.Volume)
	}
}

func TestUnboundChannelGatesEngineCommands(t *testing.T) {
	// The no-op adapter defers every binding, so no later command may
	// reach the engine either.
	d := NewDesk(Config{Engine: enginesync.Nop{}})
	ch := d.CreateChannel("vox", 0, KindAudio)
	if ch.EngineID != 0 {
		t.Fatalf("expected deferred binding, got handle %d", ch.EngineID)
	}

	d.SetVolume(ch.ID, 0.5)
	d.ToggleMute(ch.ID)

	got, _ := d.Channel(ch.ID)
	if got.Volume != 0.5 || !got.Muted {
		t.Error("local model must stay authoritative without a binding")
	}
}

func TestStaleIDsAreSilentNoOps(t *testing.T) {
	d, rec := newTestDesk()
	before := d.Version()

	d.SetVolume("gone", 0.5)
	d.SetPan("gone", -1)
	d.ToggleMute("gone")
	d.ToggleSolo("gone")
	d.DeleteChannel("gone")
	d.AssignToVca("gone", "also-gone")

	if d.Version() != before {
		t.Error("stale mutations fired notifications")
	}
	if calls := rec.Calls(); len(calls) != 0 {
		t.Errorf("stale mutations reached the engine: %v", calls)
	}
}

func TestVolumeDisplayScenario(t *testing.T) {
	d, _ := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)

	d.SetVolume(ch.ID, 0.5)
	got, _ := d.Channel(ch.ID)
	if s := gain.FormatLinear(got.Volume); s != "-6.0" {
		t.Errorf("display for 0.5 = %q, want \"-6.0\"", s)
	}

	d.SetVolume(ch.ID, 1.0)
	got, _ = d.Channel(ch.ID)
	if s := gain.FormatLinear(got.Volume); s != "+0.0" {
		t.Errorf("display for unity = %q, want \"+0.0\"", s)
	}
}

func TestMasterVolume(t *testing.T) {
	d, rec := newTestDesk()

	d.SetVolume(MasterID, 0.8)

	if got := d.MasterOut().Volume; got != 0.8 {
		t.Errorf("master volume = %v, want 0.8", got)
	}
	calls := rec.Calls()
	if len(calls) != 1 || calls[0] != "setMasterVolume(0.800)" {
		t.Errorf("expected setMasterVolume, got %v", calls)
	}
}

func TestChangeNotificationCoalesces(t *testing.T) {
	d, _ := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)

	// Drain whatever is pending.
	select {
	case <-d.Changes():
	default:
	}

	d.SetVolume(ch.ID, 0.3)
	d.SetVolume(ch.ID, 0.4)

	select {
	case <-d.Changes():
	default:
		t.Fatal("expected a pending change signal")
	}

	// Coalesced: no second signal queued.
	select {
	case <-d.Changes():
		t.Fatal("change signal did not coalesce")
	default:
	}
}

func TestAuxSendLifecycle(t *testing.T) {
	d, _ := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)
	verb := d.CreateAux("verb")

	d.AddAuxSend(ch.ID, verb.ID, 1.7, true) // clamps to 1.0
	got, _ := d.Channel(ch.ID)
	if len(got.Sends) != 1 {
		t.Fatalf("expected one send, got %d", len(got.Sends))
	}
	s := got.Sends[0]
	if s.AuxID != verb.ID || s.Level != 1.0 || !s.PreFader || !s.Enabled {
		t.Errorf("unexpected send: %+v", s)
	}

	d.SetAuxSendLevel(ch.ID, verb.ID, 0.25)
	d.SetAuxSendEnabled(ch.ID, verb.ID, false)
	got, _ = d.Channel(ch.ID)
	if got.Sends[0].Level != 0.25 || got.Sends[0].Enabled {
		t.Errorf("unexpected send after retune: %+v", got.Sends[0])
	}

	// Re-adding the same target retunes instead of duplicating.
	d.AddAuxSend(ch.ID, verb.ID, 0.9, false)
	got, _ = d.Channel(ch.ID)
	if len(got.Sends) != 1 || got.Sends[0].Level != 0.9 || got.Sends[0].PreFader {
		t.Errorf("unexpected send after re-add: %+v", got.Sends)
	}

	d.RemoveAuxSend(ch.ID, verb.ID)
	got, _ = d.Channel(ch.ID)
	if len(got.Sends) != 0 {
		t.Errorf("send not removed: %+v", got.Sends)
	}

	// Sends must reference an existing aux.
	d.AddAuxSend(ch.ID, "no-such-aux", 0.5, false)
	got, _ = d.Channel(ch.ID)
	if len(got.Sends) != 0 {
		t.Error("send added for missing aux")
	}
}

func TestVcaAssignmentMovesBetweenVcas(t *testing.T) {
	d, rec := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)
	v1 := d.CreateVca("one")
	v2 := d.CreateVca("two")
	rec.Reset()

	d.AssignToVca(ch.ID, v1.ID)
	d.AssignToVca(ch.ID, v2.ID)

	got1, _ := d.Vca(v1.ID)
	got2, _ := d.Vca(v2.ID)
	if containsID(got1.Members, ch.ID) {
		t.Error("channel still member of previous VCA")
	}
	if !containsID(got2.Members, ch.ID) {
		t.Error("channel missing from new VCA")
	}

	gotCh, _ := d.Channel(ch.ID)
	if gotCh.VcaID != v2.ID {
		t.Errorf("channel VcaID = %q, want %q", gotCh.VcaID, v2.ID)
	}

	calls := rec.Calls()
	if len(calls) != 2 || calls[0] != "vcaAssignTrack(1,1)" || calls[1] != "vcaAssignTrack(2,1)" {
		t.Errorf("unexpected engine calls: %v", calls)
	}
}

func TestSetVcaLevelForwards(t *testing.T) {
	d, rec := newTestDesk()
	v := d.CreateVca("band")
	rec.Reset()

	d.SetVcaLevel(v.ID, 0.75)

	got, _ := d.Vca(v.ID)
	if got.Level != 0.75 {
		t.Errorf("level = %v, want 0.75", got.Level)
	}
	calls := rec.Calls()
	if len(calls) != 1 || calls[0] != "vcaSetLevel(1,0.750)" {
		t.Errorf("unexpected engine calls: %v", calls)
	}
}

func TestEffectiveGain(t *testing.T) {
	d, _ := newTestDesk()
	ch := d.CreateChannel("vox", 0, KindAudio)
	v := d.CreateVca("band")
	d.AssignToVca(ch.ID, v.ID)

	d.SetVolume(ch.ID, 0.8)
	d.SetVcaLevel(v.ID, 0.5)

	if got := d.EffectiveGain(ch.ID); got != 0.4 {
		t.Errorf("effective gain = %v, want 0.4", got)
	}

	d.ToggleMute(v.ID)
	if got := d.EffectiveGain(ch.ID); got != 0 {
		t.Errorf("effective gain with muted VCA = %v, want 0", got)
	}
}
