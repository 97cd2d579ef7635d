// internal/lcd/map.go

// Package lcd maps logical display cells onto segment driver bits in
// the status image, and renders ASCII into 7-segment patterns.
//
// The element map is a process-wide read-only table shared by all
// device instances and all models; it is never mutated after init.
package lcd

import "github.com/treitmayr/yealink-module/internal/state"

// Loc is one (status image offset, bit mask) pair.
type Loc struct {
	A byte
	M byte
}

// Element is one logical display cell: either a 7-segment digit
// (Type '1', '8', 'e', 'M' describe the glyph shape printed on the
// glass) or a named pictogram (Type '.').
type Element struct {
	Type byte

	// Segs holds the driver bit for each of the seven segments in
	// a,b,c,d,e,f,g order. A zero mask means the glass has no such
	// segment for this cell. Digit cells only.
	Segs [7]Loc

	// Name is the pictogram name. Pictogram cells only; the bit then
	// lives in Segs[0].
	Name string
}

func seg(t byte, a Loc, b Loc, c Loc, d Loc, e Loc, f Loc, g Loc) Element {
	return Element{Type: t, Segs: [7]Loc{a, b, c, d, e, f, g}}
}

func pic(name string, a, m byte) Element {
	return Element{Type: '.', Name: name, Segs: [7]Loc{{A: a, M: m}}}
}

// Display line geometry, in element indices.
//
// Line 1:  18.e8.M8.88...188   (time/date row with M D : IN OUT STORE)
// Line 2:  .........           (NEW REP SU MO TU WE TH FR SA)
// Line 3:  888888888888        (12 digit text row)
// Line 4:  stand-alone icons (LED, tones, relay), addressed through
//          the same element table but living outside the LCD range.
const (
	Line1Offset = 0
	Line1Size   = 17

	Line2Offset = Line1Offset + Line1Size
	Line2Size   = 9

	Line3Offset = Line2Offset + Line2Size
	Line3Size   = 12

	Line4Offset = Line3Offset + Line3Size
)

// Elements is the full cell map. Offsets address state.Image bytes;
// for the LCD cells these fall inside [state.OffLCD, state.OffLCD+24),
// for the line-4 icons they address the feature bytes directly.
var Elements = []Element{
	// ---- LINE 1 ----
	seg('1', Loc{}, Loc{22, 2}, Loc{22, 2}, Loc{}, Loc{}, Loc{}, Loc{}),
	seg('8', Loc{20, 1}, Loc{20, 2}, Loc{20, 4}, Loc{20, 8}, Loc{21, 4}, Loc{21, 1}, Loc{21, 2}),
	pic("M", 22, 1),
	seg('e', Loc{18, 1}, Loc{18, 2}, Loc{18, 4}, Loc{18, 1}, Loc{19, 2}, Loc{19, 1}, Loc{18, 1}),
	seg('8', Loc{16, 1}, Loc{16, 2}, Loc{16, 4}, Loc{16, 8}, Loc{17, 4}, Loc{17, 1}, Loc{17, 2}),
	pic("D", 15, 8),
	seg('M', Loc{14, 1}, Loc{14, 2}, Loc{14, 4}, Loc{14, 1}, Loc{15, 4}, Loc{15, 1}, Loc{15, 2}),
	seg('8', Loc{12, 1}, Loc{12, 2}, Loc{12, 4}, Loc{12, 8}, Loc{13, 4}, Loc{13, 1}, Loc{13, 2}),
	pic(":", 11, 8),
	seg('8', Loc{10, 1}, Loc{10, 2}, Loc{10, 4}, Loc{10, 8}, Loc{11, 4}, Loc{11, 1}, Loc{11, 2}),
	seg('8', Loc{8, 1}, Loc{8, 2}, Loc{8, 4}, Loc{8, 8}, Loc{9, 4}, Loc{9, 1}, Loc{9, 2}),
	pic("IN", 7, 1),
	pic("OUT", 7, 2),
	pic("STORE", 7, 4),
	seg('1', Loc{}, Loc{5, 1}, Loc{5, 1}, Loc{}, Loc{}, Loc{}, Loc{}),
	seg('8', Loc{4, 1}, Loc{4, 2}, Loc{4, 4}, Loc{4, 8}, Loc{5, 8}, Loc{5, 2}, Loc{5, 4}),
	seg('8', Loc{2, 1}, Loc{2, 2}, Loc{2, 4}, Loc{2, 8}, Loc{3, 4}, Loc{3, 1}, Loc{3, 2}),

	// ---- LINE 2 ----
	pic("NEW", 23, 2),
	pic("REP", 23, 4),
	pic("SU", 1, 8),
	pic("MO", 1, 4),
	pic("TU", 1, 2),
	pic("WE", 1, 1),
	pic("TH", 0, 1),
	pic("FR", 0, 2),
	pic("SA", 0, 4),

	// ---- LINE 3 ----
	seg('8', Loc{22, 16}, Loc{22, 32}, Loc{22, 64}, Loc{22, 128}, Loc{23, 128}, Loc{23, 32}, Loc{23, 64}),
	seg('8', Loc{20, 16}, Loc{20, 32}, Loc{20, 64}, Loc{20, 128}, Loc{21, 128}, Loc{21, 32}, Loc{21, 64}),
	seg('8', Loc{18, 16}, Loc{18, 32}, Loc{18, 64}, Loc{18, 128}, Loc{19, 128}, Loc{19, 32}, Loc{19, 64}),
	seg('8', Loc{16, 16}, Loc{16, 32}, Loc{16, 64}, Loc{16, 128}, Loc{17, 128}, Loc{17, 32}, Loc{17, 64}),
	seg('8', Loc{14, 16}, Loc{14, 32}, Loc{14, 64}, Loc{14, 128}, Loc{15, 128}, Loc{15, 32}, Loc{15, 64}),
	seg('8', Loc{12, 16}, Loc{12, 32}, Loc{12, 64}, Loc{12, 128}, Loc{13, 128}, Loc{13, 32}, Loc{13, 64}),
	seg('8', Loc{10, 16}, Loc{10, 32}, Loc{10, 64}, Loc{10, 128}, Loc{11, 128}, Loc{11, 32}, Loc{11, 64}),
	seg('8', Loc{8, 16}, Loc{8, 32}, Loc{8, 64}, Loc{8, 128}, Loc{9, 128}, Loc{9, 32}, Loc{9, 64}),
	seg('8', Loc{6, 16}, Loc{6, 32}, Loc{6, 64}, Loc{6, 128}, Loc{7, 128}, Loc{7, 32}, Loc{7, 64}),
	seg('8', Loc{4, 16}, Loc{4, 32}, Loc{4, 64}, Loc{4, 128}, Loc{5, 128}, Loc{5, 32}, Loc{5, 64}),
	seg('8', Loc{2, 16}, Loc{2, 32}, Loc{2, 64}, Loc{2, 128}, Loc{3, 128}, Loc{3, 32}, Loc{3, 64}),
	seg('8', Loc{0, 16}, Loc{0, 32}, Loc{0, 64}, Loc{0, 128}, Loc{1, 128}, Loc{1, 32}, Loc{1, 64}),

	// ---- LINE 4 ----
	pic("LED", state.OffLED, 0x01),
	pic("DIALTONE", state.OffDialtone, 0x01),
	pic("RINGTONE", state.OffRingtone, 0x01),
	// P4K specific:
	pic("BACKLIGHT", state.OffBacklight, 0x01),
	pic("SPEAKER", state.OffSpeaker, 0x01),
	// B2K specific:
	pic("PSTN", state.OffPSTN, 0x01),
}
