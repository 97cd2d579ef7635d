// internal/engine/planner_test.go
package engine

import (
	"bytes"
	"testing"

	"github.com/treitmayr/yealink-module/internal/model"
	"github.com/treitmayr/yealink-module/internal/packet"
	"github.com/treitmayr/yealink-module/internal/state"
)

// plainLED is a synthetic variant with the simplest LED encoding,
// used to pin down the planner contract independent of real hardware
// quirks.
var plainLED = model.New(model.Model{
	Name:     "TEST",
	Protocol: packet.G1,
	LED:      model.LEDPlain,
}, model.LCDOffsets, []int{state.OffLED, state.OffKeynum})

func TestPlanLEDSingleByte(t *testing.T) {
	var master, copy state.Image
	master[state.OffLED] = 0
	copy[state.OffLED] = 1

	p := &Planner{Model: plainLED}
	pkt, ok := p.PlanNext(&master, &copy)
	if !ok {
		t.Fatalf("expected a packet")
	}
	if pkt.Cmd != packet.CmdLED || pkt.Size != 1 || pkt.Data[0] != 0 {
		t.Fatalf("packet %+v", pkt)
	}
	if copy[state.OffLED] != 0 {
		t.Fatalf("shadow LED not updated: %d", copy[state.OffLED])
	}

	frame, err := pkt.Marshal(packet.G1)
	if err != nil {
		t.Fatalf("Marshal() err=%v", err)
	}
	if err := packet.Verify(frame); err != nil {
		t.Fatalf("frame does not sum to zero: %v", err)
	}
}

func TestPlanLEDInverted(t *testing.T) {
	var master, copy state.Image
	master[state.OffLED] = 1
	copy[state.OffLED] = 0

	p := &Planner{Model: model.P1K}
	pkt, ok := p.PlanNext(&master, &copy)
	if !ok || pkt.Cmd != packet.CmdLED {
		t.Fatalf("packet %+v ok=%v", pkt, ok)
	}
	// P1K wires the LED inverted: 0 means on.
	if pkt.Data[0] != 0 {
		t.Fatalf("inverted LED on should serialize 0, got %d", pkt.Data[0])
	}
}

func TestPlanLEDDualReadsCurrentPSTN(t *testing.T) {
	var master, copy state.Image
	master[state.OffLED] = 1
	copy[state.OffLED] = 0
	// The relay is switched to PSTN in the *current* image but its
	// own update has not been sent yet; the USB LED must still be
	// suppressed.
	master[state.OffPSTN] = 1
	copy[state.OffPSTN] = 1

	p := &Planner{Model: model.B2K, PSTNRing: true}
	pkt, ok := p.PlanNext(&master, &copy)
	if !ok || pkt.Cmd != packet.CmdLED {
		t.Fatalf("packet %+v ok=%v", pkt, ok)
	}
	if pkt.Size != 2 || len(pkt.Data) != 2 {
		t.Fatalf("dual LED must carry two bytes: %+v", pkt)
	}
	if pkt.Data[0] != 0x00 {
		t.Fatalf("USB LED not gated on relay state: 0x%02x", pkt.Data[0])
	}
	if pkt.Data[1] != 0xff {
		t.Fatalf("PSTN LED must follow the ring indicator: 0x%02x", pkt.Data[1])
	}
}

func TestPlanLCDCoalescing(t *testing.T) {
	var master, copy state.Image
	for i := 0; i < state.LCDSize; i++ {
		master[i] = byte(0x80 | i)
		copy[i] = ^master[i]
	}

	p := &Planner{Model: plainLED}

	wantOffsets := []uint16{0, 11, 22}
	wantSizes := []byte{11, 11, 2}
	for step := 0; step < 3; step++ {
		pkt, ok := p.PlanNext(&master, &copy)
		if !ok || pkt.Cmd != packet.CmdLCD {
			t.Fatalf("step %d: packet %+v ok=%v", step, pkt, ok)
		}
		if pkt.Offset != wantOffsets[step] || pkt.Size != wantSizes[step] {
			t.Fatalf("step %d: offset=%d size=%d", step, pkt.Offset, pkt.Size)
		}
		if !bytes.Equal(pkt.Data, master[pkt.Offset:int(pkt.Offset)+int(pkt.Size)]) {
			t.Fatalf("step %d: data % x", step, pkt.Data)
		}
		// Shadow must cover exactly the bytes sent so far.
		for i := 0; i < state.LCDSize; i++ {
			covered := i < int(pkt.Offset)+int(pkt.Size)
			if covered && copy[i] != master[i] {
				t.Fatalf("step %d: byte %d not shadowed", step, i)
			}
			if !covered && copy[i] == master[i] {
				t.Fatalf("step %d: byte %d shadowed early", step, i)
			}
		}
	}

	if pkt, ok := p.PlanNext(&master, &copy); ok {
		t.Fatalf("expected idle, got %+v", pkt)
	}
}

func TestPlanLCDGen2PayloadHeader(t *testing.T) {
	var master, copy state.Image
	for i := 0; i < 6; i++ {
		master[i] = 0xaa
		copy[i] = 0x55
	}

	p := &Planner{Model: model.P1KH}
	pkt, ok := p.PlanNext(&master, &copy)
	if !ok || pkt.Cmd != packet.CmdLCD {
		t.Fatalf("packet %+v ok=%v", pkt, ok)
	}
	// 6 byte payload minus the (size, offset) pair leaves 4 bytes.
	want := []byte{4, 0, 0xaa, 0xaa, 0xaa, 0xaa}
	if !bytes.Equal(pkt.Data, want) {
		t.Fatalf("data % x, want % x", pkt.Data, want)
	}
	if _, err := pkt.Marshal(packet.G2); err != nil {
		t.Fatalf("Marshal() err=%v", err)
	}
}

func TestPlanIdempotent(t *testing.T) {
	var master, copy state.Image
	for i := range master {
		master[i] = byte(i * 7)
	}
	copy.Invalidate(&master)

	p := &Planner{Model: model.P1K}
	p.SetNotes([]byte{0x10, 0x20, 0x30, 0x00, 0x00})

	for i := 0; ; i++ {
		if i > 100 {
			t.Fatalf("planner did not converge")
		}
		if _, ok := p.PlanNext(&master, &copy); !ok {
			break
		}
	}

	for i := 0; i < state.Size; i++ {
		if model.P1K.Supports(i) && master[i] != copy[i] {
			t.Fatalf("offset %d still dirty after convergence", i)
		}
	}
	if _, ok := p.PlanNext(&master, &copy); ok {
		t.Fatalf("idle planner produced a packet")
	}
}

func TestPlanModelGating(t *testing.T) {
	var master, copy state.Image
	// Backlight means nothing on a P1K.
	master[state.OffBacklight] = 1
	copy[state.OffBacklight] = 0

	p := &Planner{Model: model.P1K}
	if pkt, ok := p.PlanNext(&master, &copy); ok {
		t.Fatalf("unsupported byte was serialized: %+v", pkt)
	}
	// The dirty byte is consumed so it cannot re-trigger the scan.
	if copy[state.OffBacklight] != 1 {
		t.Fatalf("unsupported byte not copied into shadow")
	}
}

func TestPlanRingNotesStream(t *testing.T) {
	var master, copy state.Image
	master[state.OffRingNotes] = 1

	p := &Planner{Model: model.P1K}
	p.SetNotes([]byte{0xFF, 0x1E, 0x0C, 0x00, 0x00})

	pkt, ok := p.PlanNext(&master, &copy)
	if !ok || pkt.Cmd != packet.CmdRingVolume {
		t.Fatalf("first packet %+v ok=%v", pkt, ok)
	}
	if pkt.Data[0] != 0xFF {
		t.Fatalf("volume byte 0x%02x", pkt.Data[0])
	}
	if copy[state.OffRingNotes] == master[state.OffRingNotes] {
		t.Fatalf("counter shadowed mid-stream")
	}

	pkt, ok = p.PlanNext(&master, &copy)
	if !ok || pkt.Cmd != packet.CmdRingNote {
		t.Fatalf("second packet %+v ok=%v", pkt, ok)
	}
	if pkt.Offset != 0 || pkt.Size != 4 {
		t.Fatalf("note chunk offset=%d size=%d", pkt.Offset, pkt.Size)
	}
	if !bytes.Equal(pkt.Data, []byte{0x1E, 0x0C, 0x00, 0x00}) {
		t.Fatalf("note chunk % x", pkt.Data)
	}
	if copy[state.OffRingNotes] != master[state.OffRingNotes] {
		t.Fatalf("counter not shadowed after terminator")
	}

	if pkt, ok = p.PlanNext(&master, &copy); ok {
		t.Fatalf("expected idle, got %+v", pkt)
	}
}

func TestPlanRingNotesNotInterleaved(t *testing.T) {
	var master, copy state.Image
	master[state.OffRingNotes] = 1

	// Two note chunks on G1: 1 volume byte + 22 note bytes.
	notes := make([]byte, 23)
	notes[0] = 0x80
	for i := 1; i < 21; i++ {
		notes[i] = byte(i)
	}
	// terminator already zero

	p := &Planner{Model: model.P1K}
	p.SetNotes(notes)

	if pkt, _ := p.PlanNext(&master, &copy); pkt.Cmd != packet.CmdRingVolume {
		t.Fatalf("first packet %+v", pkt)
	}
	if pkt, _ := p.PlanNext(&master, &copy); pkt.Cmd != packet.CmdRingNote {
		t.Fatalf("second packet %+v", pkt)
	}

	// An LCD byte goes dirty while the stream is mid-flight; it must
	// not lap the incomplete transfer.
	master[0] = 0x42

	pkt, ok := p.PlanNext(&master, &copy)
	if !ok || pkt.Cmd != packet.CmdRingNote {
		t.Fatalf("stream was interrupted by %+v", pkt)
	}
	if pkt.Offset != 11 || pkt.Size != 11 {
		t.Fatalf("final chunk offset=%d size=%d", pkt.Offset, pkt.Size)
	}
	// The terminator pair closes the stream.
	if pkt.Data[10] != 0 || pkt.Data[9] != 0 {
		t.Fatalf("stream does not end in 00 00: % x", pkt.Data)
	}

	pkt, ok = p.PlanNext(&master, &copy)
	if !ok || pkt.Cmd != packet.CmdLCD {
		t.Fatalf("LCD update lost after stream: %+v ok=%v", pkt, ok)
	}
}

func TestPlanScancodeRequest(t *testing.T) {
	var master, copy state.Image
	master[state.OffKeynum] = 0x05
	copy[state.OffKeynum] = 0x04

	p := &Planner{Model: model.P1K}
	pkt, ok := p.PlanNext(&master, &copy)
	if !ok || pkt.Cmd != packet.CmdScancode {
		t.Fatalf("packet %+v ok=%v", pkt, ok)
	}
	// The firmware wants (keynum-1) & 0x1f in the offset field.
	if pkt.Offset != 0x04 {
		t.Fatalf("scancode offset %d", pkt.Offset)
	}
	if pkt.Data[0] != 0 {
		t.Fatalf("scancode data %d", pkt.Data[0])
	}
}

func TestPlanB2KRingCommand(t *testing.T) {
	var master, copy state.Image
	master[state.OffRingtone] = 1
	copy[state.OffRingtone] = 0

	p := &Planner{Model: model.B2K}
	pkt, ok := p.PlanNext(&master, &copy)
	if !ok || pkt.Cmd != packet.CmdB2KRing {
		t.Fatalf("packet %+v ok=%v", pkt, ok)
	}
}
