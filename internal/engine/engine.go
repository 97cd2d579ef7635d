// internal/engine/engine.go

// Package engine drives one phone: it owns the status image, the
// shadow copy, the diff planner and the conversation state machine
// that keeps exactly one request outstanding on the USB channels.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/treitmayr/yealink-module/internal/lcd"
	"github.com/treitmayr/yealink-module/internal/model"
	"github.com/treitmayr/yealink-module/internal/packet"
	"github.com/treitmayr/yealink-module/internal/state"
)

// Transport is the channel pair the engine talks through. Submissions
// are asynchronous; the done callback runs in the transport's
// completion context and may fire concurrently with other callbacks.
type Transport interface {
	// FrameLen reports the device frame length (16 or 8 bytes); it
	// selects the protocol generation before any packet is sent.
	FrameLen() int

	// SubmitCommand sends one frame on the command channel. done is
	// invoked with the transport status once the transfer completed.
	SubmitCommand(frame []byte, done func(err error)) error

	// SubmitEvent arms one event channel read. done receives the raw
	// frame, checksum unverified.
	SubmitEvent(done func(frame []byte, err error)) error

	// Exchange synchronously sends a frame and waits for the next
	// event channel frame, used only during negotiation.
	Exchange(frame []byte, timeout time.Duration) ([]byte, error)

	Close() error
}

// Event is a device notification delivered to the control surface.
type Event struct {
	// Type is "key", "hook" or "pstn-ring".
	Type string `json:"type"`

	// Key is the decoded key name for key events.
	Key string `json:"key,omitempty"`

	// Down is true for key press / off hook / ring start.
	Down bool `json:"down"`
}

// conversation flags, all guarded by Engine.mu. They are only ever
// read-modify-written together; no flag is exposed individually.
type flags struct {
	scanActive   bool
	updateActive bool
	timerExpired bool
	usbPause     bool
	shuttingDown bool
}

func (f *flags) inFlight() bool { return f.scanActive || f.updateActive }

// Config carries the engine options.
type Config struct {
	// PollInterval is the conversation timer period.
	PollInterval time.Duration

	// Ringtone is programmed into the phone on start. Empty selects
	// the built-in default melody.
	Ringtone []byte

	// ForceModel overrides version classification with a fixed model
	// name. Empty means classify normally.
	ForceModel string

	// ExchangeTimeout bounds one synchronous negotiation exchange.
	ExchangeTimeout time.Duration
}

// Engine is one attached phone instance.
type Engine struct {
	tr  Transport
	cfg Config
	log *log.Entry
	gen packet.Generation

	// rw serializes structural operations (ring note swap, teardown)
	// against the control surfaces; holders may sleep.
	rw sync.RWMutex

	// mu is the short-hold lock around flags, image, shadow and
	// planner state. Nothing sleeps under it.
	mu      sync.Mutex
	flags   flags
	master  state.Image
	copy    state.Image
	planner Planner
	disp    *lcd.Display

	mod       *model.Model
	version   uint16
	serial    string
	lastCmd   byte
	lastScan  byte
	hookState byte
	keyDown   string
	timer     *time.Timer

	events chan Event
}

var (
	// ErrShutdown is returned once teardown has begun.
	ErrShutdown = errors.New("engine: shutting down")

	// ErrBusy is returned when the conversation would not quiesce
	// within the bounded pause window.
	ErrBusy = errors.New("engine: device busy")
)

// New builds an engine for a transport. Negotiation does not happen
// until Start.
func New(cfg Config, tr Transport, logger *log.Entry) (*Engine, error) {
	gen, err := packet.FromFrameLen(tr.FrameLen())
	if err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.ExchangeTimeout <= 0 {
		cfg.ExchangeTimeout = time.Second
	}
	if len(cfg.Ringtone) == 0 {
		cfg.Ringtone = append([]byte(nil), DefaultRingtone...)
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	return &Engine{
		tr:     tr,
		cfg:    cfg,
		log:    logger,
		gen:    gen,
		disp:   lcd.NewDisplay(),
		events: make(chan Event, 16),
	}, nil
}

// Events returns the device notification stream. The channel is
// closed on teardown; events are dropped rather than blocking the
// completion context when no one drains them.
func (e *Engine) Events() <-chan Event { return e.events }

// ModelName returns the negotiated model, or "" before Start.
func (e *Engine) ModelName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mod == nil {
		return ""
	}
	return e.mod.Name
}

// Serial returns the device identifier built from the INIT reply.
func (e *Engine) Serial() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.serial
}

// Version returns the raw firmware version word.
func (e *Engine) Version() uint16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Line returns the format row and text row of LCD line n (1-3).
func (e *Engine) Line(n int) (format, text string, err error) {
	e.rw.RLock()
	defer e.rw.RUnlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disp.Line(n)
}

// SetLine writes text to LCD line n and pokes the conversation.
func (e *Engine) SetLine(n int, text string) error {
	e.rw.RLock()
	defer e.rw.RUnlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.flags.shuttingDown {
		return ErrShutdown
	}
	if err := e.disp.SetLine(&e.master, n, text); err != nil {
		return err
	}
	e.process()
	return nil
}

// Icons lists the pictograms with their current state.
func (e *Engine) Icons() []lcd.Icon {
	e.rw.RLock()
	defer e.rw.RUnlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disp.Icons()
}

// SetIcon shows or hides one pictogram and pokes the conversation.
func (e *Engine) SetIcon(name string, on bool) error {
	e.rw.RLock()
	defer e.rw.RUnlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.flags.shuttingDown {
		return ErrShutdown
	}
	if err := e.disp.SetIcon(&e.master, name, on); err != nil {
		return err
	}
	e.process()
	return nil
}

// Poke re-evaluates the conversation; the external "something
// changed" trigger.
func (e *Engine) Poke() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.process()
}

// Stop tears the instance down: cancels the timer, blocks new
// submissions, aborts in-flight transfers and waits for the
// conversation to drain.
func (e *Engine) Stop() {
	e.rw.Lock()
	defer e.rw.Unlock()

	e.mu.Lock()
	if e.flags.shuttingDown {
		e.mu.Unlock()
		return
	}
	e.flags.shuttingDown = true
	if e.timer != nil {
		e.timer.Stop()
	}
	e.mu.Unlock()

	// Aborting the transport fails pending completions, which see
	// the shutdown flag and drain instead of resubmitting.
	if err := e.tr.Close(); err != nil {
		e.log.WithError(err).Warn("transport close")
	}

	for i := 0; i < 100; i++ {
		e.mu.Lock()
		idle := !e.flags.inFlight()
		e.mu.Unlock()
		if idle {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	close(e.events)
}

// emit delivers an event without ever blocking a completion context.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.WithField("type", ev.Type).Debug("event dropped, queue full")
	}
}

// reportKey converts a decoded scancode into key up/down events.
// The previous key is released before a new one is pressed.
func (e *Engine) reportKey(name string, ok bool) {
	if e.keyDown != "" {
		e.emit(Event{Type: "key", Key: e.keyDown, Down: false})
		e.keyDown = ""
	}
	if ok {
		e.keyDown = name
		e.emit(Event{Type: "key", Key: name, Down: true})
	}
}

func (e *Engine) String() string {
	return fmt.Sprintf("yealink %s (%s, serial %s)", e.ModelName(), e.gen, e.Serial())
}
