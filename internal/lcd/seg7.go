// internal/lcd/seg7.go
package lcd

// 7-segment encoding, one bit per segment:
//
//	 _a_
//	f| |b
//	 -g-
//	e| |c
//	 _d_
const (
	segA = 0x01
	segB = 0x02
	segC = 0x04
	segD = 0x08
	segE = 0x10
	segF = 0x20
	segG = 0x40
)

// seg7 is the default ASCII character set. Characters without a
// sensible 7-segment rendering map to blank.
var seg7 = [128]byte{
	'0': segA | segB | segC | segD | segE | segF,
	'1': segB | segC,
	'2': segA | segB | segD | segE | segG,
	'3': segA | segB | segC | segD | segG,
	'4': segB | segC | segF | segG,
	'5': segA | segC | segD | segF | segG,
	'6': segA | segC | segD | segE | segF | segG,
	'7': segA | segB | segC,
	'8': segA | segB | segC | segD | segE | segF | segG,
	'9': segA | segB | segC | segD | segF | segG,

	'A': segA | segB | segC | segE | segF | segG,
	'B': segC | segD | segE | segF | segG,
	'C': segA | segD | segE | segF,
	'D': segB | segC | segD | segE | segG,
	'E': segA | segD | segE | segF | segG,
	'F': segA | segE | segF | segG,
	'G': segA | segC | segD | segE | segF,
	'H': segB | segC | segE | segF | segG,
	'I': segB | segC,
	'J': segB | segC | segD | segE,
	'K': segB | segC | segE | segF | segG,
	'L': segD | segE | segF,
	'M': segA | segB | segC | segE | segF,
	'N': segA | segB | segC | segE | segF,
	'O': segA | segB | segC | segD | segE | segF,
	'P': segA | segB | segE | segF | segG,
	'Q': segA | segB | segC | segF | segG,
	'R': segA | segE | segF,
	'S': segA | segC | segD | segF | segG,
	'T': segD | segE | segF | segG,
	'U': segB | segC | segD | segE | segF,
	'V': segB | segC | segD | segE | segF,
	'W': segB | segC | segD | segE | segF,
	'X': segB | segC | segE | segF | segG,
	'Y': segB | segC | segD | segF | segG,
	'Z': segA | segB | segD | segE | segG,

	'a': segA | segB | segC | segD | segE | segG,
	'b': segC | segD | segE | segF | segG,
	'c': segD | segE | segG,
	'd': segB | segC | segD | segE | segG,
	'e': segA | segB | segD | segE | segF | segG,
	'f': segA | segE | segF | segG,
	'g': segA | segB | segC | segD | segF | segG,
	'h': segC | segE | segF | segG,
	'i': segC,
	'j': segC | segD,
	'k': segB | segC | segE | segF | segG,
	'l': segD | segE | segF,
	'm': segA | segC | segE | segG,
	'n': segC | segE | segG,
	'o': segC | segD | segE | segG,
	'p': segA | segB | segE | segF | segG,
	'q': segA | segB | segC | segF | segG,
	'r': segE | segG,
	's': segA | segC | segD | segF | segG,
	't': segD | segE | segF | segG,
	'u': segC | segD | segE,
	'v': segC | segD | segE,
	'w': segC | segD | segE,
	'x': segB | segC | segE | segF | segG,
	'y': segB | segC | segD | segF | segG,
	'z': segA | segB | segD | segE | segG,

	'-':  segG,
	'_':  segD,
	'=':  segD | segG,
	'\'': segF,
	'"':  segB | segF,
	'(':  segA | segD | segE | segF,
	')':  segA | segB | segC | segD,
	'[':  segA | segD | segE | segF,
	']':  segA | segB | segC | segD,
	'|':  segE | segF,
	'?':  segA | segB | segE | segG,
}

// MapToSeg7 returns the segment pattern for a character, blank for
// anything outside the table.
func MapToSeg7(ch byte) byte {
	if int(ch) < len(seg7) {
		return seg7[ch]
	}
	return 0
}
