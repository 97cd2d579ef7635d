// internal/usb/usb.go

// Package usb opens the phone over libusb and exposes its two
// channels: control-out for command frames and interrupt-in for event
// frames. The frame length reported by the IN endpoint is what tells
// the rest of the driver which protocol generation the device speaks.
package usb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	log "github.com/sirupsen/logrus"
)

const (
	// VendorID / ProductID of every known handset variant. The models
	// are indistinguishable at the descriptor level; the firmware
	// version read after attach is what tells them apart.
	VendorID  gousb.ID = 0x6993
	ProductID gousb.ID = 0xb001
)

// Control transfer constants for the command channel.
const (
	reqTypeOut = 0x21 // host to device, class, interface
	reqSet     = 0x09
	valSet     = 0x0200
)

var ErrNoDevice = errors.New("usb: no yealink handset found")

type cmdJob struct {
	frame []byte
	done  func(error)
}

type evJob struct {
	done func([]byte, error)
}

// Phone is one opened handset. It implements the engine transport:
// submissions are queued and completed from two worker goroutines, so
// a completion callback never runs inside a Submit call.
type Phone struct {
	usbCtx *gousb.Context
	dev    *gousb.Device
	cfg    *gousb.Config
	iface  *gousb.Interface
	epIn   *gousb.InEndpoint

	l        *log.Entry
	frameLen int
	ifNum    uint16

	// epMu serializes interrupt-in reads between the event worker and
	// the synchronous negotiation exchange.
	epMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	cmdQ chan cmdJob
	evQ  chan evJob

	closeOnce sync.Once
}

// Open claims the first attached handset. The caller owns the result
// and must Close it.
func Open(logger *log.Entry) (*Phone, error) {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	p := &Phone{l: logger}
	p.usbCtx = gousb.NewContext()

	var err error
	p.dev, err = p.usbCtx.OpenDeviceWithVIDPID(VendorID, ProductID)
	if err != nil {
		p.cleanup()
		return nil, fmt.Errorf("usb: open device: %w", err)
	}
	if p.dev == nil {
		p.cleanup()
		return nil, ErrNoDevice
	}

	// The kernel HID driver grabs the device first; detach it for the
	// lifetime of the claim.
	if err := p.dev.SetAutoDetach(true); err != nil {
		p.cleanup()
		return nil, fmt.Errorf("usb: auto detach: %w", err)
	}

	p.cfg, err = p.dev.Config(1)
	if err != nil {
		p.cleanup()
		return nil, fmt.Errorf("usb: claim config 1: %w", err)
	}

	if err := p.findEndpoint(); err != nil {
		p.cleanup()
		return nil, err
	}

	p.l.WithField("frame_len", p.frameLen).
		WithField("endpoint", p.epIn.Desc.Number).
		Info("handset claimed")

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.cmdQ = make(chan cmdJob, 1)
	p.evQ = make(chan evJob, 1)
	go p.cmdLoop()
	go p.evLoop()
	return p, nil
}

// findEndpoint locates the interrupt IN endpoint. Its max packet size
// is the device frame length.
func (p *Phone) findEndpoint() error {
	for _, ifaceDesc := range p.cfg.Desc.Interfaces {
		for _, alt := range ifaceDesc.AltSettings {
			for _, epDesc := range alt.Endpoints {
				if epDesc.Direction != gousb.EndpointDirectionIn ||
					epDesc.TransferType != gousb.TransferTypeInterrupt {
					continue
				}
				iface, err := p.cfg.Interface(alt.Number, alt.Alternate)
				if err != nil {
					return fmt.Errorf("usb: claim interface %d: %w", alt.Number, err)
				}
				ep, err := iface.InEndpoint(epDesc.Number)
				if err != nil {
					iface.Close()
					return fmt.Errorf("usb: open endpoint %d: %w", epDesc.Number, err)
				}
				p.iface = iface
				p.epIn = ep
				p.ifNum = uint16(alt.Number)
				p.frameLen = epDesc.MaxPacketSize
				return nil
			}
		}
	}
	return errors.New("usb: no interrupt IN endpoint")
}

// FrameLen reports the device frame length (16 or 8).
func (p *Phone) FrameLen() int { return p.frameLen }

// SubmitCommand queues one frame for the control-out channel.
func (p *Phone) SubmitCommand(frame []byte, done func(error)) error {
	job := cmdJob{frame: append([]byte(nil), frame...), done: done}
	select {
	case p.cmdQ <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// SubmitEvent arms one interrupt-in read.
func (p *Phone) SubmitEvent(done func([]byte, error)) error {
	select {
	case p.evQ <- evJob{done: done}:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Exchange sends a frame and returns the next event frame, bypassing
// the queues. Only used before the asynchronous machinery is armed.
func (p *Phone) Exchange(frame []byte, timeout time.Duration) ([]byte, error) {
	if err := p.writeFrame(frame); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return p.readFrame(ctx)
}

// Close aborts in-flight transfers and releases the device. Queued
// submissions are completed with the cancellation error so the engine
// can drain.
func (p *Phone) Close() error {
	p.closeOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		p.cleanup()
	})
	return nil
}

func (p *Phone) cleanup() {
	if p.iface != nil {
		p.iface.Close()
	}
	if p.cfg != nil {
		p.cfg.Close()
	}
	if p.dev != nil {
		p.dev.SetAutoDetach(false)
		p.dev.Close()
	}
	if p.usbCtx != nil {
		p.usbCtx.Close()
	}
}

// ---- WORKER LOOPS ----

func (p *Phone) cmdLoop() {
	for {
		select {
		case job := <-p.cmdQ:
			job.done(p.writeFrame(job.frame))
		case <-p.ctx.Done():
			p.failPending()
			return
		}
	}
}

func (p *Phone) evLoop() {
	for {
		select {
		case job := <-p.evQ:
			frame, err := p.readFrame(p.ctx)
			job.done(frame, err)
		case <-p.ctx.Done():
			p.failPending()
			return
		}
	}
}

// failPending completes whatever is still queued after cancellation.
func (p *Phone) failPending() {
	for {
		select {
		case job := <-p.cmdQ:
			job.done(p.ctx.Err())
		case job := <-p.evQ:
			job.done(nil, p.ctx.Err())
		default:
			return
		}
	}
}

func (p *Phone) writeFrame(frame []byte) error {
	n, err := p.dev.Control(reqTypeOut, reqSet, valSet, p.ifNum, frame)
	if err != nil {
		return fmt.Errorf("usb: control out: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("usb: short control write: %d of %d", n, len(frame))
	}
	return nil
}

func (p *Phone) readFrame(ctx context.Context) ([]byte, error) {
	p.epMu.Lock()
	defer p.epMu.Unlock()

	buf := make([]byte, p.frameLen)
	n, err := p.epIn.ReadContext(ctx, buf)
	if err != nil {
		return nil, fmt.Errorf("usb: interrupt in: %w", err)
	}
	if n != p.frameLen {
		return nil, fmt.Errorf("usb: short event frame: %d of %d", n, p.frameLen)
	}
	return buf[:n], nil
}
