// internal/packet/packet.go
package packet

import (
	"encoding/binary"
	"fmt"
)

// Generation selects one of the two incompatible wire formats.
type Generation int

const (
	// G1 is the 16 byte format: cmd, size, offset (u16 BE), 11 data
	// bytes, checksum. Used by the P1K, P4K, B2K and B3G.
	G1 Generation = iota

	// G2 is the 8 byte format: cmd, 6 data bytes, checksum.
	// Used by the P1KH. It has no size/offset header fields.
	G2
)

// Frame geometry per generation.
const (
	FrameLenG1 = 16
	FrameLenG2 = 8

	DataLenG1 = 11
	DataLenG2 = 6
)

// FrameLen returns the wire frame length for a generation.
func (g Generation) FrameLen() int {
	if g == G1 {
		return FrameLenG1
	}
	return FrameLenG2
}

// DataLen returns the usable payload capacity for a generation.
// Note that on G2 multi-byte LCD updates spend the first two data
// bytes on an explicit (size, offset) pair.
func (g Generation) DataLen() int {
	if g == G1 {
		return DataLenG1
	}
	return DataLenG2
}

func (g Generation) String() string {
	if g == G1 {
		return "G1"
	}
	return "G2"
}

// FromFrameLen maps a transport frame length onto a generation.
// The phone does not announce its protocol; the interrupt endpoint
// packet size is the only discriminator available before VERSION.
func FromFrameLen(n int) (Generation, error) {
	switch n {
	case FrameLenG1:
		return G1, nil
	case FrameLenG2:
		return G2, nil
	}
	return G1, fmt.Errorf("packet: unsupported frame length %d", n)
}

// Packet is one decoded control/event packet, independent of the wire
// format. Size and Offset are meaningful on G1 only; on G2 they are
// folded into the payload where a command needs them.
type Packet struct {
	Cmd    byte
	Size   byte
	Offset uint16
	Data   []byte
}

// Checksum returns the value of the final frame byte: the negated sum
// of all preceding bytes, so that the whole frame sums to 0 mod 256.
func Checksum(frame []byte) byte {
	var sum byte
	for _, b := range frame[:len(frame)-1] {
		sum -= b
	}
	return sum
}

// Verify recomputes the checksum over an entire received frame.
// A non-zero residue is a transport-level corruption signal; the
// caller must discard the frame, never interpret it.
func Verify(frame []byte) error {
	var sum byte
	for _, b := range frame {
		sum += b
	}
	if sum != 0 {
		return fmt.Errorf("packet: checksum residue 0x%02x", sum)
	}
	return nil
}

// Marshal serializes the packet into a checksummed wire frame.
func (p *Packet) Marshal(g Generation) ([]byte, error) {
	switch g {
	case G1:
		if len(p.Data) > DataLenG1 {
			return nil, fmt.Errorf("packet: %d data bytes exceed G1 payload", len(p.Data))
		}
		frame := make([]byte, FrameLenG1)
		frame[0] = p.Cmd
		frame[1] = p.Size
		binary.BigEndian.PutUint16(frame[2:4], p.Offset)
		copy(frame[4:4+DataLenG1], p.Data)
		frame[FrameLenG1-1] = Checksum(frame)
		return frame, nil

	case G2:
		if len(p.Data) > DataLenG2 {
			return nil, fmt.Errorf("packet: %d data bytes exceed G2 payload", len(p.Data))
		}
		frame := make([]byte, FrameLenG2)
		frame[0] = p.Cmd
		copy(frame[1:1+DataLenG2], p.Data)
		frame[FrameLenG2-1] = Checksum(frame)
		return frame, nil
	}
	return nil, fmt.Errorf("packet: unknown generation %d", g)
}

// Unmarshal decodes a received frame. The checksum must have been
// verified already; Unmarshal only splits fields.
func Unmarshal(frame []byte, g Generation) (*Packet, error) {
	switch g {
	case G1:
		if len(frame) != FrameLenG1 {
			return nil, fmt.Errorf("packet: G1 frame length %d", len(frame))
		}
		p := &Packet{
			Cmd:    frame[0],
			Size:   frame[1],
			Offset: binary.BigEndian.Uint16(frame[2:4]),
			Data:   append([]byte(nil), frame[4:4+DataLenG1]...),
		}
		return p, nil

	case G2:
		if len(frame) != FrameLenG2 {
			return nil, fmt.Errorf("packet: G2 frame length %d", len(frame))
		}
		p := &Packet{
			Cmd:  frame[0],
			Data: append([]byte(nil), frame[1:1+DataLenG2]...),
		}
		return p, nil
	}
	return nil, fmt.Errorf("packet: unknown generation %d", g)
}
