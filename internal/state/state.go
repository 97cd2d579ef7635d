// internal/state/state.go

// Package state holds the desired-state image of the phone and the
// shadow copy of what was last queued to it. The planner addresses
// both purely by byte offset; the offset constants below are therefore
// protocol-locked for this driver and MUST NOT be reordered.
package state

// ---- IMAGE GEOMETRY ----

const (
	// OffLCD is the first of the 24 LCD segment driver bytes.
	OffLCD  = 0
	LCDSize = 24

	// OffLED holds the LED state (bit 0).
	OffLED = 24

	// OffBacklight holds the LCD backlight state (P4K family).
	OffBacklight = 25

	// OffSpeaker holds the hands-free speaker state (P4K family).
	OffSpeaker = 26

	// OffPSTN holds the PSTN/USB relay state (B2K, B3G).
	OffPSTN = 27

	// OffKeynum holds the last key event sequence number seen on the
	// event channel. A change triggers a scancode request.
	OffKeynum = 28

	// OffRingVol holds the buzzer volume (P1K, P1KH).
	OffRingVol = 29

	// OffRingNotes is a change counter, not a value: it is incremented
	// each time a new ring note sequence must be pushed, so repeated
	// uploads before the previous one was consumed still provoke
	// exactly one further push cycle.
	OffRingNotes = 30

	// OffRingtone holds the buzzer ring state (P1K, P1KH).
	OffRingtone = 31

	// OffDialtone holds the ear speaker dial tone state.
	OffDialtone = 32

	// OffInit and OffVersion are G1-only trigger bytes: dirtying them
	// makes the planner emit an INIT or VERSION request.
	OffInit    = 33
	OffVersion = 34

	// Size is the total image size in bytes.
	Size = 35
)

// Image is the byte-addressable device state. The same type serves as
// the desired image ("master") and as the shadow of what was last
// queued to the phone ("copy").
type Image [Size]byte

// Invalidate makes every byte of the shadow differ from the master so
// that the next diff pass re-sends the complete device state. Used on
// (re)connect and resume.
func (shadow *Image) Invalidate(master *Image) {
	for i := range shadow {
		shadow[i] = ^master[i]
	}
}

// SetBit sets or clears mask bits in the byte at offset a.
func (img *Image) SetBit(a int, mask byte, on bool) {
	if on {
		img[a] |= mask
	} else {
		img[a] &^= mask
	}
}

// SetOnOff stores 1 or 0 at the given offset.
func (img *Image) SetOnOff(a int, on bool) {
	if on {
		img[a] = 1
	} else {
		img[a] = 0
	}
}
