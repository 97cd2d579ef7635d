// internal/model/model.go

// Package model describes the supported phone variants. A Model is
// selected once per device at negotiation time and is immutable from
// then on: it fixes the wire format generation, the scancode decoder
// and the set of status bytes that are meaningful for the hardware.
package model

import (
	"fmt"

	"github.com/treitmayr/yealink-module/internal/packet"
	"github.com/treitmayr/yealink-module/internal/state"
)

// LEDMode describes how the LED status byte is serialized.
type LEDMode int

const (
	// LEDNone: the variant has no LED command.
	LEDNone LEDMode = iota

	// LEDPlain: one data byte, 0 off / 1 on.
	LEDPlain

	// LEDInverted: one data byte, 1 off / 0 on (P1K, P1KH).
	LEDInverted

	// LEDDual: two data bytes, USB LED and PSTN LED, 0x00/0xff each
	// (B2K, B3G). The USB LED is forced off while the relay is on
	// PSTN, and the PSTN LED follows the line ring indicator.
	LEDDual
)

// Model is the immutable per-variant descriptor.
type Model struct {
	Name     string
	Protocol packet.Generation
	LED      LEDMode

	// AltScanCmd is the second polling request alternated with
	// KEYPRESS on successive idle cycles, or 0 if the variant only
	// reports keys. G1 only; G2 models never poll.
	AltScanCmd byte

	// B2KRing selects CMD_B2K_RING instead of CMD_RINGTONE for the
	// ringtone status byte.
	B2KRing bool

	// Keycode decodes a key scancode into a key name. ok is false
	// for scancodes with no key assigned.
	Keycode func(scancode byte) (name string, ok bool)

	supported [state.Size]bool
}

// Supports reports whether a status byte offset is meaningful for
// this variant. The planner never serializes unsupported offsets.
func (m *Model) Supports(offset int) bool {
	if offset < 0 || offset >= state.Size {
		return false
	}
	return m.supported[offset]
}

// LCDOffsets is the feature group covering the 24 segment bytes.
var LCDOffsets = func() []int {
	offs := make([]int, state.LCDSize)
	for i := range offs {
		offs[i] = state.OffLCD + i
	}
	return offs
}()

// New returns a descriptor supporting exactly the given offset
// groups. The built-in variants below are constructed with it; tests
// use it to build synthetic hardware.
func New(m Model, features ...[]int) *Model {
	for _, group := range features {
		for _, off := range group {
			m.supported[off] = true
		}
	}
	return &m
}

var (
	// P1K: LCD handset with buzzer, G1.
	P1K = New(Model{
		Name:     "P1K",
		Protocol: packet.G1,
		LED:      LEDInverted,
		Keycode:  keycodeP1K,
	}, LCDOffsets, []int{
		state.OffLED, state.OffKeynum, state.OffRingVol,
		state.OffRingNotes, state.OffRingtone,
		state.OffInit, state.OffVersion,
	})

	// P1KH: the P1K hardware refresh speaking the 8 byte protocol.
	// No scan phase and no init/version trigger bytes.
	P1KH = New(Model{
		Name:     "P1KH",
		Protocol: packet.G2,
		LED:      LEDInverted,
		Keycode:  keycodeP1K,
	}, LCDOffsets, []int{
		state.OffLED, state.OffKeynum, state.OffRingVol,
		state.OffRingNotes, state.OffRingtone,
	})

	// P4K: speakerphone with backlight, no buzzer. Rings through the
	// speaker, alternates hook scans with key scans.
	P4K = New(Model{
		Name:       "P4K",
		Protocol:   packet.G1,
		LED:        LEDNone,
		AltScanCmd: packet.CmdHookpress,
		Keycode:    keycodeP4K,
	}, LCDOffsets, []int{
		state.OffBacklight, state.OffSpeaker, state.OffKeynum,
		state.OffDialtone, state.OffInit, state.OffVersion,
	})

	// B2K: PSTN/USB switch box without an LCD. Keys arrive from the
	// built-in DTMF decoder; the PSTN line is polled via HANDSET.
	B2K = New(Model{
		Name:       "B2K",
		Protocol:   packet.G1,
		LED:        LEDDual,
		AltScanCmd: packet.CmdHandset,
		B2KRing:    true,
		Keycode:    keycodeB2K,
	}, []int{
		state.OffLED, state.OffPSTN, state.OffKeynum,
		state.OffRingtone, state.OffDialtone,
		state.OffInit, state.OffVersion,
	})

	// B3G: like the B2K but without the HANDSET scan.
	B3G = New(Model{
		Name:     "B3G",
		Protocol: packet.G1,
		LED:      LEDDual,
		B2KRing:  true,
		Keycode:  keycodeB2K,
	}, []int{
		state.OffLED, state.OffPSTN, state.OffKeynum,
		state.OffRingtone, state.OffDialtone,
		state.OffInit, state.OffVersion,
	})
)

// All lists the known variants.
var All = []*Model{P1K, P1KH, P4K, B2K, B3G}

// ByName returns the variant with the given name.
func ByName(name string) (*Model, error) {
	for _, m := range All {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("model: unknown model %q", name)
}

// Classify maps a firmware version onto a variant. The generation is
// decided by the transport frame size before VERSION is ever sent, so
// the version only has to discriminate within its generation. Version
// ranges are disjoint; a version outside all of them makes the device
// inoperable.
func Classify(gen packet.Generation, version uint16) (*Model, error) {
	if gen == packet.G2 {
		if version >= 0x0100 && version <= 0x01ff {
			return P1KH, nil
		}
		return nil, fmt.Errorf("model: unknown G2 firmware version 0x%04x", version)
	}

	switch {
	case version >= 0x0100 && version <= 0x01ff:
		return P1K, nil
	case version >= 0x0230 && version <= 0x02ff:
		return P4K, nil
	case (version >= 0x0520 && version <= 0x053f) ||
		(version >= 0x0570 && version <= 0x058f):
		return B2K, nil
	case version >= 0x0540 && version <= 0x056f:
		return B3G, nil
	}
	return nil, fmt.Errorf("model: unknown G1 firmware version 0x%04x", version)
}
