// internal/state/state_test.go
package state

import "testing"

func TestInvalidate(t *testing.T) {
	var master, shadow Image
	for i := range master {
		master[i] = byte(i)
		shadow[i] = byte(i)
	}
	shadow.Invalidate(&master)
	for i := range master {
		if shadow[i] == master[i] {
			t.Fatalf("offset %d still matches after invalidate", i)
		}
	}
}

func TestSetBit(t *testing.T) {
	var img Image
	img.SetBit(OffLED, 0x05, true)
	if img[OffLED] != 0x05 {
		t.Fatalf("got 0x%02x", img[OffLED])
	}
	img.SetBit(OffLED, 0x01, false)
	if img[OffLED] != 0x04 {
		t.Fatalf("got 0x%02x", img[OffLED])
	}
}

func TestSetOnOff(t *testing.T) {
	var img Image
	img.SetOnOff(OffSpeaker, true)
	if img[OffSpeaker] != 1 {
		t.Fatalf("got %d", img[OffSpeaker])
	}
	img.SetOnOff(OffSpeaker, false)
	if img[OffSpeaker] != 0 {
		t.Fatalf("got %d", img[OffSpeaker])
	}
}
