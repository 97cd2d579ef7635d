// internal/lcd/display_test.go
package lcd

import (
	"testing"

	"github.com/treitmayr/yealink-module/internal/state"
)

func TestSetCharDigit(t *testing.T) {
	var img state.Image
	d := NewDisplay()

	// First cell of line 3 is a full '8' digit.
	el := Line3Offset
	if err := d.SetChar(&img, el, '1'); err != nil {
		t.Fatalf("SetChar() err=%v", err)
	}

	// '1' lights only segments b and c.
	e := &Elements[el]
	if img[e.Segs[1].A]&e.Segs[1].M == 0 {
		t.Fatalf("segment b not set")
	}
	if img[e.Segs[2].A]&e.Segs[2].M == 0 {
		t.Fatalf("segment c not set")
	}
	if img[e.Segs[0].A]&e.Segs[0].M != 0 {
		t.Fatalf("segment a set for '1'")
	}

	// Overwriting with space blanks the digit again.
	if err := d.SetChar(&img, el, ' '); err != nil {
		t.Fatalf("SetChar() err=%v", err)
	}
	for i := range img {
		if img[i] != 0 {
			t.Fatalf("image byte %d still 0x%02x after blank", i, img[i])
		}
	}
}

func TestSetCharPlaceholder(t *testing.T) {
	var img state.Image
	d := NewDisplay()

	el := Line3Offset
	if err := d.SetChar(&img, el, '8'); err != nil {
		t.Fatalf("SetChar() err=%v", err)
	}
	before := img

	if err := d.SetChar(&img, el, '\t'); err != nil {
		t.Fatalf("SetChar() err=%v", err)
	}
	if img != before {
		t.Fatalf("placeholder mutated the image")
	}
	if _, text, _ := d.Line(3); text[0] != '8' {
		t.Fatalf("placeholder overwrote text: %q", text)
	}
}

func TestIconShowHide(t *testing.T) {
	var img state.Image
	d := NewDisplay()

	if err := d.SetIcon(&img, "LED", true); err != nil {
		t.Fatalf("SetIcon() err=%v", err)
	}
	if img[state.OffLED]&0x01 == 0 {
		t.Fatalf("LED bit not set")
	}

	if err := d.SetIcon(&img, "LED", false); err != nil {
		t.Fatalf("SetIcon() err=%v", err)
	}
	if img[state.OffLED]&0x01 != 0 {
		t.Fatalf("LED bit not cleared")
	}

	if err := d.SetIcon(&img, "NOSUCH", true); err == nil {
		t.Fatalf("expected error for unknown icon")
	}
}

func TestIconsList(t *testing.T) {
	var img state.Image
	d := NewDisplay()

	if err := d.SetIcon(&img, "IN", true); err != nil {
		t.Fatalf("SetIcon() err=%v", err)
	}

	found := false
	for _, ic := range d.Icons() {
		if ic.Name == "IN" {
			found = true
			if !ic.On {
				t.Fatalf("IN reported off")
			}
		} else if ic.On {
			t.Fatalf("icon %s unexpectedly on", ic.Name)
		}
	}
	if !found {
		t.Fatalf("IN missing from icon list")
	}
}

func TestSetLineTruncatesAndRenders(t *testing.T) {
	var img state.Image
	d := NewDisplay()

	if err := d.SetLine(&img, 3, "0123456789ABCDEF"); err != nil {
		t.Fatalf("SetLine() err=%v", err)
	}
	format, text, err := d.Line(3)
	if err != nil {
		t.Fatalf("Line() err=%v", err)
	}
	if format != "888888888888" {
		t.Fatalf("format %q", format)
	}
	if text != "0123456789AB" {
		t.Fatalf("text %q", text)
	}
}

func TestElementTableGeometry(t *testing.T) {
	if got := len(Elements); got != Line4Offset+6 {
		t.Fatalf("element count %d", got)
	}
	// All LCD cell locations must stay inside the segment byte range.
	for i := 0; i < Line4Offset; i++ {
		for _, s := range Elements[i].Segs {
			if s.M != 0 && int(s.A) >= state.LCDSize {
				t.Fatalf("element %d addresses byte %d outside LCD range", i, s.A)
			}
		}
	}
}
