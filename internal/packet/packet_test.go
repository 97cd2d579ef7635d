// internal/packet/packet_test.go
package packet

import (
	"math/rand"
	"testing"
)

func TestChecksumRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		n := FrameLenG2
		if i%2 == 0 {
			n = FrameLenG1
		}
		frame := make([]byte, n)
		for j := range frame[:n-1] {
			frame[j] = byte(rng.Intn(256))
		}
		frame[n-1] = Checksum(frame)

		if err := Verify(frame); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
}

func TestVerifyRejectsCorruption(t *testing.T) {
	p := &Packet{Cmd: CmdLED, Size: 1, Data: []byte{0}}
	frame, err := p.Marshal(G1)
	if err != nil {
		t.Fatalf("Marshal() err=%v", err)
	}
	frame[5] ^= 0x40

	if err := Verify(frame); err == nil {
		t.Fatalf("expected checksum error on corrupted frame")
	}
}

func TestMarshalG1Layout(t *testing.T) {
	p := &Packet{
		Cmd:    CmdLCD,
		Size:   3,
		Offset: 0x0102,
		Data:   []byte{0xaa, 0xbb, 0xcc},
	}
	frame, err := p.Marshal(G1)
	if err != nil {
		t.Fatalf("Marshal() err=%v", err)
	}

	if len(frame) != FrameLenG1 {
		t.Fatalf("frame length %d", len(frame))
	}
	if frame[0] != CmdLCD || frame[1] != 3 {
		t.Fatalf("header bytes % x", frame[:2])
	}
	if frame[2] != 0x01 || frame[3] != 0x02 {
		t.Fatalf("offset not big-endian: % x", frame[2:4])
	}
	if frame[4] != 0xaa || frame[5] != 0xbb || frame[6] != 0xcc {
		t.Fatalf("data bytes % x", frame[4:7])
	}
	if err := Verify(frame); err != nil {
		t.Fatalf("Verify() err=%v", err)
	}
}

func TestMarshalG2Layout(t *testing.T) {
	p := &Packet{Cmd: CmdLED, Data: []byte{0x01}}
	frame, err := p.Marshal(G2)
	if err != nil {
		t.Fatalf("Marshal() err=%v", err)
	}

	if len(frame) != FrameLenG2 {
		t.Fatalf("frame length %d", len(frame))
	}
	if frame[0] != CmdLED || frame[1] != 0x01 {
		t.Fatalf("frame % x", frame)
	}
	if err := Verify(frame); err != nil {
		t.Fatalf("Verify() err=%v", err)
	}
}

func TestMarshalRejectsOversizedPayload(t *testing.T) {
	p := &Packet{Cmd: CmdRingNote, Data: make([]byte, DataLenG1+1)}
	if _, err := p.Marshal(G1); err == nil {
		t.Fatalf("expected error for oversized G1 payload")
	}

	p = &Packet{Cmd: CmdRingNote, Data: make([]byte, DataLenG2+1)}
	if _, err := p.Marshal(G2); err == nil {
		t.Fatalf("expected error for oversized G2 payload")
	}
}

func TestUnmarshalRoundTrip(t *testing.T) {
	p := &Packet{Cmd: CmdVersion, Size: 2, Data: []byte{0x01, 0x14}}
	frame, err := p.Marshal(G1)
	if err != nil {
		t.Fatalf("Marshal() err=%v", err)
	}

	q, err := Unmarshal(frame, G1)
	if err != nil {
		t.Fatalf("Unmarshal() err=%v", err)
	}
	if q.Cmd != CmdVersion || q.Size != 2 || q.Offset != 0 {
		t.Fatalf("header mismatch: %+v", q)
	}
	if q.Data[0] != 0x01 || q.Data[1] != 0x14 {
		t.Fatalf("data mismatch: % x", q.Data[:2])
	}
}

func TestFromFrameLen(t *testing.T) {
	g, err := FromFrameLen(16)
	if err != nil || g != G1 {
		t.Fatalf("16 -> %v, %v", g, err)
	}
	g, err = FromFrameLen(8)
	if err != nil || g != G2 {
		t.Fatalf("8 -> %v, %v", g, err)
	}
	if _, err = FromFrameLen(64); err == nil {
		t.Fatalf("expected error for frame length 64")
	}
}
