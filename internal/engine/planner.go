// internal/engine/planner.go
package engine

import (
	"github.com/treitmayr/yealink-module/internal/model"
	"github.com/treitmayr/yealink-module/internal/packet"
	"github.com/treitmayr/yealink-module/internal/state"
)

// Planner derives the next command packet from the difference between
// the desired status image and the shadow of what was last queued to
// the phone. It owns the circular scan cursor and the ring note
// stream cursor; everything else it touches is passed in per call.
//
// A byte is copied into the shadow the moment a packet covering it is
// assembled. Queued counts as delivered: there is no end-to-end
// acknowledgement, a lost update is only repaired by the next change.
type Planner struct {
	Model *model.Model

	// PSTNRing mirrors the line ring indicator reported by HANDSET
	// scans; it feeds the second LED byte on dual-LED models.
	PSTNRing bool

	cursor int

	notes  []byte
	noteIx int
}

// SetNotes replaces the ring note buffer wholesale and rewinds the
// stream. Must not be called while a transfer is mid-stream; the
// uploader guarantees that by pausing the conversation first.
func (p *Planner) SetNotes(buf []byte) {
	p.notes = buf
	p.noteIx = 0
}

// NotesStreaming reports whether a ring note transfer is mid-stream.
func (p *Planner) NotesStreaming() bool {
	return p.noteIx != 0
}

// PlanNext scans for the first model-supported byte where the image
// and the shadow disagree and serializes it (plus, for LCD and ring
// notes, its continuation) into a packet. It returns false when a
// full circle found nothing to send.
func (p *Planner) PlanNext(master, copy *state.Image) (*packet.Packet, bool) {
	start := p.cursor
	ix := start

	for {
		if master[ix] != copy[ix] {
			if p.Model.Supports(ix) {
				if pkt := p.dispatch(ix, master, copy); pkt != nil {
					return pkt, true
				}
				// Consumed without emitting (empty note buffer).
			} else {
				// Unsupported bytes are consumed, not skipped, so an
				// accidental mutation cannot re-trigger the scan
				// forever.
				copy[ix] = master[ix]
			}
		}
		ix++
		if ix >= state.Size {
			ix = 0
		}
		if ix == start {
			return nil, false
		}
	}
}

// dispatch maps a dirty offset onto its wire command.
func (p *Planner) dispatch(ix int, master, copy *state.Image) *packet.Packet {
	// The two multi-packet branches manage shadow and cursor
	// themselves; everything below is strictly one byte, one packet.
	if ix >= state.OffLCD && ix < state.OffLCD+state.LCDSize {
		return p.planLCD(ix, master, copy)
	}
	if ix == state.OffRingNotes {
		return p.planRingNotes(ix, master, copy)
	}

	val := master[ix]
	copy[ix] = val
	p.cursor = wrap(ix + 1)
	pkt := &packet.Packet{Size: 1, Data: []byte{val}}

	switch ix {
	case state.OffLED:
		p.planLED(pkt, val, master)

	case state.OffBacklight:
		pkt.Cmd = packet.CmdBacklight

	case state.OffSpeaker:
		pkt.Cmd = packet.CmdSpeaker

	case state.OffPSTN:
		pkt.Cmd = packet.CmdPSTNSwitch

	case state.OffDialtone:
		pkt.Cmd = packet.CmdDialtone

	case state.OffRingtone:
		if p.Model.B2KRing {
			pkt.Cmd = packet.CmdB2KRing
		} else {
			pkt.Cmd = packet.CmdRingtone
		}

	case state.OffRingVol:
		pkt.Cmd = packet.CmdRingVolume

	case state.OffKeynum:
		// The event sequence number changed: ask which key it was.
		key := (val - 1) & 0x1f
		pkt.Cmd = packet.CmdScancode
		if p.Model.Protocol == packet.G1 {
			pkt.Offset = uint16(key)
			pkt.Data = []byte{0}
		} else {
			pkt.Data = []byte{key}
		}

	case state.OffInit:
		pkt.Cmd = packet.CmdInit
		pkt.Size = 10
		pkt.Data = make([]byte, 10)

	case state.OffVersion:
		pkt.Cmd = packet.CmdVersion
		pkt.Size = 2
		pkt.Data = make([]byte, 2)
	}
	return pkt
}

// planLED serializes the LED byte. Dual-LED models are the documented
// exception to "one status byte, one payload byte": the USB LED is
// gated on the relay position read from the *current* image, and a
// second byte carries the line ring indicator.
func (p *Planner) planLED(pkt *packet.Packet, val byte, master *state.Image) {
	pkt.Cmd = packet.CmdLED

	switch p.Model.LED {
	case model.LEDInverted:
		if val == 0 {
			pkt.Data = []byte{1}
		} else {
			pkt.Data = []byte{0}
		}

	case model.LEDDual:
		usb := byte(0x00)
		if val != 0 && master[state.OffPSTN] == 0 {
			usb = 0xff
		}
		pstn := byte(0x00)
		if p.PSTNRing {
			pstn = 0xff
		}
		pkt.Size = 2
		pkt.Data = []byte{usb, pstn}

	default: // LEDPlain
		pkt.Data = []byte{val}
	}
}

// planLCD coalesces consecutive dirty LCD bytes starting at ix into
// one packet, bounded by the payload capacity. On G2 the frame has no
// size/offset header, so the first two payload bytes carry them at
// the cost of two data bytes.
func (p *Planner) planLCD(ix int, master, copy *state.Image) *packet.Packet {
	capacity := p.Model.Protocol.DataLen()
	if p.Model.Protocol == packet.G2 {
		capacity -= 2
	}

	n := 1
	for n < capacity && ix+n < state.OffLCD+state.LCDSize &&
		master[ix+n] != copy[ix+n] {
		n++
	}

	data := make([]byte, n)
	for i := 0; i < n; i++ {
		data[i] = master[ix+i]
		copy[ix+i] = master[ix+i]
	}
	p.cursor = wrap(ix + n)

	pkt := &packet.Packet{
		Cmd:    packet.CmdLCD,
		Size:   byte(n),
		Offset: uint16(ix),
	}
	if p.Model.Protocol == packet.G2 {
		pkt.Data = append([]byte{byte(n), byte(ix)}, data...)
	} else {
		pkt.Data = data
	}
	return pkt
}

// planRingNotes streams the ring note buffer across successive calls:
// first the volume byte as RING_VOLUME, then RING_NOTE chunks of the
// remainder. While mid-stream the changed-counter byte deliberately
// stays out of sync with its shadow and the scan cursor is NOT
// advanced, so the very next pass resumes this stream instead of
// letting other offsets split the transfer.
func (p *Planner) planRingNotes(ix int, master, copy *state.Image) *packet.Packet {
	if len(p.notes) == 0 {
		// Nothing to push; consume the counter and keep scanning.
		copy[ix] = master[ix]
		p.cursor = wrap(ix + 1)
		return nil
	}

	if p.noteIx == 0 {
		p.noteIx = 1
		p.cursor = ix // rollback: resume here next call
		return &packet.Packet{
			Cmd:  packet.CmdRingVolume,
			Size: 1,
			Data: []byte{p.notes[0]},
		}
	}

	capacity := p.Model.Protocol.DataLen()
	n := len(p.notes) - p.noteIx
	if n > capacity {
		n = capacity
	}
	pkt := &packet.Packet{
		Cmd:    packet.CmdRingNote,
		Size:   byte(n),
		Offset: uint16(p.noteIx - 1),
		Data:   append([]byte(nil), p.notes[p.noteIx:p.noteIx+n]...),
	}
	p.noteIx += n

	if p.noteIx >= len(p.notes) {
		// Terminator sent; the transfer is complete.
		copy[ix] = master[ix]
		p.noteIx = 0
		p.cursor = wrap(ix + 1)
	} else {
		p.cursor = ix
	}
	return pkt
}

func wrap(ix int) int {
	if ix >= state.Size {
		return 0
	}
	return ix
}
