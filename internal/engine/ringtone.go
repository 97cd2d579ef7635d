// internal/engine/ringtone.go
package engine

import (
	"fmt"
	"time"

	"github.com/treitmayr/yealink-module/internal/state"
)

// DefaultRingtone is programmed on start when no melody is
// configured: byte 0 is the volume, then (frequency code, duration)
// pairs, closed by the 00 00 terminator.
var DefaultRingtone = []byte{
	0xEF, // volume [0-255]
	0xFB, 0x1E, 0x00, 0x0C, // 1250 [Hz], 12/100 [s]
	0xFC, 0x18, 0x00, 0x0C, // 1000 [Hz], 12/100 [s]
	0xFB, 0x1E, 0x00, 0x0C,
	0xFC, 0x18, 0x00, 0x0C,
	0xFB, 0x1E, 0x00, 0x0C,
	0xFC, 0x18, 0x00, 0x0C,
	0xFB, 0x1E, 0x00, 0x0C,
	0xFC, 0x18, 0x00, 0x0C,
	0xFF, 0xFF, 0x01, 0x90, // silent, 400/100 [s]
	0x00, 0x00, // end of sequence
}

// MaxRingtoneLen bounds an uploaded note buffer (volume byte, note
// pairs and terminator included).
const MaxRingtoneLen = 256

const (
	pauseAttempts = 50
	pauseDelay    = 10 * time.Millisecond
)

// SetRingtone validates and stores a new ring note buffer and bumps
// the changed counter so the planner pushes it to the phone.
//
// Note writes must not be interleaved with unrelated updates, so the
// conversation is paused first: assert usbPause, wait for the
// in-flight request to finish, swap buffers, unpause and re-poke.
// Pending diffs survive the pause untouched.
func (e *Engine) SetRingtone(buf []byte) error {
	if len(buf) == 0 {
		return fmt.Errorf("engine: empty ringtone")
	}
	if len(buf) > MaxRingtoneLen {
		return fmt.Errorf("engine: ringtone %d bytes exceeds limit %d",
			len(buf), MaxRingtoneLen)
	}

	notes := append([]byte(nil), buf...)
	// The stream must end in the 00 00 terminator pair or the phone
	// keeps waiting for more notes.
	n := len(notes)
	if n < 3 || notes[n-1] != 0 || notes[n-2] != 0 {
		notes = append(notes, 0, 0)
	}

	e.rw.Lock()
	defer e.rw.Unlock()

	e.mu.Lock()
	if e.flags.shuttingDown {
		e.mu.Unlock()
		return ErrShutdown
	}
	if e.flags.usbPause {
		e.mu.Unlock()
		return ErrBusy
	}
	e.flags.usbPause = true
	e.mu.Unlock()

	// Bounded wait for quiescence; short sleeps, no busy spin.
	quiesced := false
	for i := 0; i < pauseAttempts; i++ {
		e.mu.Lock()
		quiesced = !e.flags.inFlight()
		e.mu.Unlock()
		if quiesced {
			break
		}
		time.Sleep(pauseDelay)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !quiesced {
		e.flags.usbPause = false
		e.process()
		return ErrBusy
	}

	e.planner.SetNotes(notes)
	e.master[state.OffRingNotes]++
	e.flags.usbPause = false
	e.process()
	return nil
}
