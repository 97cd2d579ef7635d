// internal/packet/constants.go
package packet

// Control packet command codes as used by the phone firmware.
// These values define the protocol and MUST NOT be configurable.

const (
	// CmdInit requests the init register block (G1: size 10, offset 0).
	CmdInit = 0x8e

	// CmdVersion requests the 16-bit firmware version (G1: size 2, offset 0).
	CmdVersion = 0x87

	// CmdKeypress polls the key event sequence counter.
	CmdKeypress = 0x80

	// CmdScancode reads the scancode for a key number (0-0x1f, via offset).
	CmdScancode = 0x81

	// CmdHookpress polls the hook switch (reply data[0] bit 4: 1 on hook).
	CmdHookpress = 0x8b

	// CmdHandset polls the attached PSTN line (B2K only, not B3G).
	// Reply data[0] bit 0: PSTN ring signal, bit 1: off hook.
	CmdHandset = 0x8d

	// CmdLCD writes 1-11 segment driver bytes at an offset 0-23.
	CmdLCD = 0x04

	// CmdLED sets the LED. One data byte on P1K/P1KH (1 off, 0 on),
	// two on B2K/B3G (USB LED, PSTN LED; 0x00 off, 0xff on).
	CmdLED = 0x05

	// CmdRingVolume sets the buzzer volume 0-0xff.
	CmdRingVolume = 0x11

	// CmdRingNote downloads a chunk of the ring note sequence.
	CmdRingNote = 0x02

	// CmdRingtone turns the buzzer ring on or off.
	CmdRingtone = 0x03

	// CmdDialtone turns the ear speaker dial tone on or off.
	CmdDialtone = 0x09

	// CmdBacklight turns the LCD backlight on or off.
	CmdBacklight = 0x12

	// CmdSpeaker turns the hands-free speaker on or off.
	CmdSpeaker = 0x0c

	// CmdB2KRing rings the B2K/B3G handset (toggle for a periodic ring).
	CmdB2KRing = 0x01

	// CmdPSTNSwitch selects the line relay: 0 USB, 1 PSTN.
	CmdPSTNSwitch = 0x0e

	// StateBadPkt is replied by the firmware whenever the packet it
	// received had an invalid checksum or caused an internal error.
	StateBadPkt = 0xfd
)
