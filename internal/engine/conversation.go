// internal/engine/conversation.go
package engine

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/treitmayr/yealink-module/internal/packet"
	"github.com/treitmayr/yealink-module/internal/state"
)

// replyExpected lists the commands whose answer arrives on the event
// channel. After such a command completes, the next step is an event
// read, not another command.
func replyExpected(cmd byte) bool {
	switch cmd {
	case packet.CmdKeypress, packet.CmdHookpress, packet.CmdHandset,
		packet.CmdScancode, packet.CmdInit, packet.CmdVersion:
		return true
	}
	return false
}

// process is the single idle-state evaluation point. Caller holds
// e.mu. Whichever context observes idle claims the next submission;
// everyone else returns without touching the channel.
func (e *Engine) process() {
	if e.flags.shuttingDown || e.flags.usbPause || e.flags.inFlight() {
		return
	}
	if e.mod == nil {
		return
	}

	if pkt, ok := e.planner.PlanNext(&e.master, &e.copy); ok {
		e.submitUpdate(pkt)
		return
	}

	// Nothing to send. On G1 an expired timer converts the idle slot
	// into a key/hook poll; G2 devices report events unsolicited.
	if e.gen == packet.G1 && e.flags.timerExpired {
		e.flags.timerExpired = false
		e.submitScan()
	}
}

// submitUpdate claims idle -> update-in-flight. Caller holds e.mu.
func (e *Engine) submitUpdate(pkt *packet.Packet) {
	frame, err := pkt.Marshal(e.gen)
	if err != nil {
		// Planner and codec disagree on capacity; an internal bug,
		// not a device failure. The diff stays pending.
		e.log.WithError(err).Error("marshal update")
		return
	}
	e.flags.updateActive = true
	e.lastCmd = pkt.Cmd
	if err := e.tr.SubmitCommand(frame, e.onCommandDone); err != nil {
		e.flags.updateActive = false
		e.log.WithError(err).Error("submit update")
	}
}

// submitScan claims idle -> scan-in-flight and issues the next poll
// request, alternating key and hook scans on models that need both.
// Caller holds e.mu. G1 only.
func (e *Engine) submitScan() {
	cmd := byte(packet.CmdKeypress)
	if e.mod.AltScanCmd != 0 && e.lastScan == packet.CmdKeypress {
		cmd = e.mod.AltScanCmd
	}
	e.lastScan = cmd

	pkt := &packet.Packet{Cmd: cmd, Size: 1, Data: []byte{0}}
	frame, err := pkt.Marshal(e.gen)
	if err != nil {
		e.log.WithError(err).Error("marshal scan")
		return
	}
	e.flags.scanActive = true
	e.lastCmd = cmd
	if err := e.tr.SubmitCommand(frame, e.onCommandDone); err != nil {
		e.flags.scanActive = false
		e.log.WithError(err).Error("submit scan")
	}
}

// onCommandDone runs in the command channel completion context.
func (e *Engine) onCommandDone(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		// Transport failure: logged, no data, but the conversation
		// must still advance. A stalled machine never updates again.
		e.log.WithError(err).Error("command channel")
	}

	if e.flags.shuttingDown {
		e.flags.scanActive = false
		e.flags.updateActive = false
		return
	}

	if e.gen == packet.G1 && err == nil && replyExpected(e.lastCmd) {
		// The reply comes back on the event channel; the in-flight
		// flag stays claimed until it arrives.
		if serr := e.tr.SubmitEvent(e.onEventDone); serr != nil {
			e.log.WithError(serr).Error("arm event read")
			e.flags.scanActive = false
			e.flags.updateActive = false
		}
		return
	}

	e.flags.scanActive = false
	e.flags.updateActive = false
	e.process()
}

// onEventDone runs in the event channel completion context. On G1 it
// terminates the request that asked for this reply; on G2 the event
// channel is perpetually re-armed from right here.
func (e *Engine) onEventDone(frame []byte, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flags.shuttingDown {
		if e.gen == packet.G1 {
			e.flags.scanActive = false
			e.flags.updateActive = false
		}
		return
	}

	switch {
	case err != nil:
		e.log.WithError(err).Error("event channel")
	case packet.Verify(frame) != nil:
		// Corrupted in transit: discard, never interpret.
		e.log.WithField("frame", hex.EncodeToString(frame)).
			Warn("event frame checksum mismatch")
	default:
		if pkt, perr := packet.Unmarshal(frame, e.gen); perr != nil {
			e.log.WithError(perr).Warn("event frame")
		} else {
			e.handleEvent(pkt)
		}
	}

	if e.gen == packet.G1 {
		// This reply terminates the request that asked for it.
		e.flags.scanActive = false
		e.flags.updateActive = false
	} else {
		// The G2 event channel is independent of the command channel
		// and stays armed for the lifetime of the instance.
		if serr := e.tr.SubmitEvent(e.onEventDone); serr != nil {
			e.log.WithError(serr).Error("re-arm event read")
		}
	}
	e.process()
}

// handleEvent interprets one verified event packet. Caller holds e.mu.
func (e *Engine) handleEvent(pkt *packet.Packet) {
	switch pkt.Cmd {
	case packet.CmdKeypress:
		// A changed sequence number dirties the keynum byte, which
		// makes the planner issue the scancode request.
		e.master[state.OffKeynum] = pkt.Data[0]

	case packet.CmdScancode:
		scancode := pkt.Data[0]
		name, ok := e.mod.Keycode(scancode)
		e.reportKey(name, ok)
		if !ok && scancode != 0xff {
			e.log.WithField("scancode", scancode).Info("unknown scancode")
		}

	case packet.CmdHookpress:
		h := pkt.Data[0]
		if h != e.hookState {
			e.log.WithField("hookstate", h).Debug("hook changed")
			// Bit 4 set means on hook.
			e.emit(Event{Type: "hook", Down: h&0x10 == 0})
			e.hookState = h
		}

	case packet.CmdHandset:
		// B2K line scan: bit 0 ring signal, bit 1 off hook.
		h := pkt.Data[0]
		if (h^e.hookState)&0x02 != 0 {
			e.emit(Event{Type: "hook", Down: h&0x02 != 0})
		}
		ring := h&0x01 != 0
		if ring != e.planner.PSTNRing {
			e.planner.PSTNRing = ring
			e.emit(Event{Type: "pstn-ring", Down: ring})
			// The PSTN LED mirrors the ring indicator; force the LED
			// byte through the planner again.
			e.copy[state.OffLED] = ^e.master[state.OffLED]
		}
		e.hookState = h

	case packet.CmdVersion:
		e.version = binary.BigEndian.Uint16(pkt.Data[:2])

	case packet.CmdInit:
		e.serial = serialFromInit(pkt)

	case packet.StateBadPkt:
		// The phone rejected our previous packet. The diff already
		// counts as consumed; the next mutation repairs it.
		e.log.Warn("firmware reported bad packet")

	default:
		e.log.WithField("cmd", pkt.Cmd).Error("unexpected response")
	}
}

// onTimer is the periodic conversation trigger.
func (e *Engine) onTimer() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.flags.shuttingDown {
		return
	}
	if e.gen == packet.G1 {
		e.flags.timerExpired = true
	}
	e.process()
	e.timer.Reset(e.cfg.PollInterval)
}

func serialFromInit(pkt *packet.Packet) string {
	n := int(pkt.Size)
	if n == 0 || n > len(pkt.Data) {
		n = len(pkt.Data)
	}
	return hex.EncodeToString(pkt.Data[:n])
}
