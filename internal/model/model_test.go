// internal/model/model_test.go
package model

import (
	"testing"

	"github.com/treitmayr/yealink-module/internal/packet"
	"github.com/treitmayr/yealink-module/internal/state"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		gen     packet.Generation
		version uint16
		want    string
		wantErr bool
	}{
		{packet.G1, 0x0100, "P1K", false},
		{packet.G1, 0x0114, "P1K", false},
		{packet.G1, 0x01ff, "P1K", false},
		{packet.G1, 0x0230, "P4K", false},
		{packet.G1, 0x02ff, "P4K", false},
		{packet.G1, 0x0520, "B2K", false},
		{packet.G1, 0x0575, "B2K", false},
		{packet.G1, 0x0540, "B3G", false},
		{packet.G1, 0x056f, "B3G", false},
		{packet.G2, 0x0114, "P1KH", false},
		{packet.G1, 0x0000, "", true},
		{packet.G1, 0x0200, "", true},
		{packet.G1, 0x0560, "B3G", false},
		{packet.G1, 0x0590, "", true},
		{packet.G1, 0xffff, "", true},
		{packet.G2, 0x0230, "", true},
	}

	for _, c := range cases {
		m, err := Classify(c.gen, c.version)
		if c.wantErr {
			if err == nil {
				t.Fatalf("Classify(%v, 0x%04x): expected error, got %s", c.gen, c.version, m.Name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Classify(%v, 0x%04x): %v", c.gen, c.version, err)
		}
		if m.Name != c.want {
			t.Fatalf("Classify(%v, 0x%04x) = %s, want %s", c.gen, c.version, m.Name, c.want)
		}
	}
}

func TestSupports(t *testing.T) {
	if !P1K.Supports(state.OffLED) {
		t.Fatalf("P1K must support the LED byte")
	}
	if P1K.Supports(state.OffBacklight) {
		t.Fatalf("P1K has no backlight")
	}
	if P4K.Supports(state.OffLED) {
		t.Fatalf("P4K has no LED")
	}
	if !P4K.Supports(state.OffBacklight) {
		t.Fatalf("P4K must support the backlight byte")
	}
	if B2K.Supports(state.OffLCD) || B2K.Supports(state.OffLCD+23) {
		t.Fatalf("B2K has no LCD")
	}
	if !B2K.Supports(state.OffPSTN) {
		t.Fatalf("B2K must support the PSTN relay byte")
	}
	if P1KH.Supports(state.OffInit) || P1KH.Supports(state.OffVersion) {
		t.Fatalf("G2 models have no init/version trigger bytes")
	}
	if !P1K.Supports(state.OffInit) || !P1K.Supports(state.OffVersion) {
		t.Fatalf("P1K must support the init/version trigger bytes")
	}
	if P1K.Supports(-1) || P1K.Supports(state.Size) {
		t.Fatalf("out of range offsets are never supported")
	}
}

func TestKeycodeP1K(t *testing.T) {
	cases := []struct {
		scancode byte
		want     string
		ok       bool
	}{
		{0x00, "1", true},
		{0x01, "2", true},
		{0x03, "PICKUP", true},
		{0x13, "HANGUP", true},
		{0x14, "C", true},
		{0x23, "IN", true},
		{0x30, "*", true},
		{0x33, "UP", true},
		{0x08, "", false}, // bit 3 set
		{0x05, "", false}, // unassigned position
		{0xff, "", false}, // no key
	}

	for _, c := range cases {
		got, ok := keycodeP1K(c.scancode)
		if got != c.want || ok != c.ok {
			t.Fatalf("keycodeP1K(0x%02x) = %q,%v want %q,%v", c.scancode, got, ok, c.want, c.ok)
		}
	}
}

func TestKeycodeP4K(t *testing.T) {
	cases := []struct {
		scancode byte
		want     string
	}{
		{0x00, "DIAL"},
		{0x05, "HELP"},
		{0x15, "FLASH"},
		{0x20, "HANDSFREE"},
		{0x31, "VOL+"},
		{0x40, "VOL-"},
		{0x44, "REDIAL"},
	}
	for _, c := range cases {
		got, ok := keycodeP4K(c.scancode)
		if !ok || got != c.want {
			t.Fatalf("keycodeP4K(0x%02x) = %q,%v want %q", c.scancode, got, ok, c.want)
		}
	}
}

func TestByName(t *testing.T) {
	m, err := ByName("B3G")
	if err != nil || m != B3G {
		t.Fatalf("ByName(B3G) = %v, %v", m, err)
	}
	if _, err := ByName("P9K"); err == nil {
		t.Fatalf("expected error for unknown model name")
	}
}
