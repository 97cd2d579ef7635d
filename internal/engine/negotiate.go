// internal/engine/negotiate.go
package engine

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/treitmayr/yealink-module/internal/model"
	"github.com/treitmayr/yealink-module/internal/packet"
	"github.com/treitmayr/yealink-module/internal/state"
)

// DriverVersion is shown on LCD line 3 after attach, like the kernel
// driver used to do.
const DriverVersion = "yld 20260829"

const (
	negotiateAttempts = 3
	negotiateDelay    = 50 * time.Millisecond
)

// Start performs the synchronous boot-time negotiation and then arms
// the asynchronous machinery. It must complete before any control
// surface is used; a negotiation failure leaves the device inoperable
// and no request is ever submitted for it again.
func (e *Engine) Start() error {
	e.rw.Lock()
	defer e.rw.Unlock()

	e.mu.Lock()
	if e.flags.shuttingDown {
		e.mu.Unlock()
		return ErrShutdown
	}
	e.mu.Unlock()

	// VERSION: classifies the device variant within its generation.
	reply, err := e.exchange(&packet.Packet{
		Cmd:  packet.CmdVersion,
		Size: 2,
		Data: []byte{0, 0},
	})
	if err != nil {
		return fmt.Errorf("negotiate: version: %w", err)
	}
	version := binary.BigEndian.Uint16(reply.Data[:2])

	mod, err := model.Classify(e.gen, version)
	if e.cfg.ForceModel != "" {
		forced, ferr := model.ByName(e.cfg.ForceModel)
		if ferr != nil {
			return ferr
		}
		if forced.Protocol != e.gen {
			return fmt.Errorf("negotiate: model %s speaks %s, device speaks %s",
				forced.Name, forced.Protocol, e.gen)
		}
		if err == nil && forced != mod {
			e.log.WithField("classified", mod.Name).
				WithField("forced", forced.Name).
				Warn("model override differs from classification")
		}
		mod, err = forced, nil
	}
	if err != nil {
		return err
	}

	// INIT: the reply payload identifies the physical unit.
	initData := make([]byte, 10)
	if e.gen == packet.G2 {
		initData = make([]byte, packet.DataLenG2)
	}
	reply, err = e.exchange(&packet.Packet{
		Cmd:  packet.CmdInit,
		Size: byte(len(initData)),
		Data: initData,
	})
	if err != nil {
		return fmt.Errorf("negotiate: init: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.mod = mod
	e.version = version
	e.serial = serialFromInit(reply)
	e.planner.Model = mod
	e.flags = flags{} // idle, not paused

	// Fresh desired state: everything blank, banner on the text row,
	// shadow invalidated so the first diff pass repaints the device.
	e.disp.Clear(&e.master)
	e.disp.SetLine(&e.master, 3, DriverVersion)
	e.planner.SetNotes(e.cfg.Ringtone)
	e.master[state.OffRingNotes]++
	e.copy.Invalidate(&e.master)

	e.log.WithField("model", mod.Name).
		WithField("version", fmt.Sprintf("0x%04x", version)).
		WithField("serial", e.serial).
		Info("negotiated")

	if e.gen == packet.G2 {
		if err := e.tr.SubmitEvent(e.onEventDone); err != nil {
			return fmt.Errorf("negotiate: arm event channel: %w", err)
		}
	}
	e.timer = time.AfterFunc(e.cfg.PollInterval, e.onTimer)
	e.process()
	return nil
}

// exchange performs one bounded-retry synchronous request/reply.
// Transient timeouts and checksum failures are tolerated, but not
// indefinitely.
func (e *Engine) exchange(pkt *packet.Packet) (*packet.Packet, error) {
	frame, err := pkt.Marshal(e.gen)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < negotiateAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(negotiateDelay)
		}
		reply, err := e.tr.Exchange(frame, e.cfg.ExchangeTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		if err := packet.Verify(reply); err != nil {
			lastErr = err
			continue
		}
		rp, err := packet.Unmarshal(reply, e.gen)
		if err != nil {
			lastErr = err
			continue
		}
		if rp.Cmd != pkt.Cmd {
			lastErr = fmt.Errorf("unexpected reply 0x%02x to 0x%02x", rp.Cmd, pkt.Cmd)
			continue
		}
		return rp, nil
	}
	return nil, lastErr
}
