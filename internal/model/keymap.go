// internal/model/keymap.go
package model

// Scancodes pack a row/column position as row<<4 | col. Bit 3 is never
// set for a valid key; foldScancode compresses the row nibble so the
// tables below can be dense.
func foldScancode(s byte) (int, bool) {
	if s&0x08 != 0 {
		return 0, false
	}
	return int(s&0x07) | int(s&0xf0)>>1, true
}

/* USB-P1K button layout:
 *
 *             up
 *       IN           OUT
 *            down
 *
 *     pickup   C    hangup
 *       1      2      3
 *       4      5      6
 *       7      8      9
 *       *      0      #
 */
var p1kKeys = []string{
	"1", "2", "3", "PICKUP", "OUT", "", "", "",
	"4", "5", "6", "HANGUP", "C", "", "", "",
	"7", "8", "9", "IN", "DOWN", "", "", "",
	"*", "0", "#", "UP",
}

func keycodeP1K(scancode byte) (string, bool) {
	return lookupKey(p1kKeys, scancode)
}

/* USB-P4K button layout:
 *
 *	     IN      up     OUT
 *	     VOL+	    DEL
 *	     VOL-   down    DIAL
 *
 *	       1      2      3
 *	       4      5      6
 *	       7      8      9
 *	       *      0      #
 *
 *       HELP                   SEND
 *      FLASH     handsfree     REDIAL
 */
var p4kKeys = []string{
	"DIAL", "3", "6", "9", "#", "HELP", "", "",
	"OUT", "2", "5", "8", "0", "FLASH", "", "",
	"HANDSFREE", "1", "4", "7", "*", "SEND", "", "",
	"DOWN", "VOL+", "UP", "DEL", "IN", "", "", "",
	"VOL-", "", "", "", "REDIAL",
}

func keycodeP4K(scancode byte) (string, bool) {
	return lookupKey(p4kKeys, scancode)
}

// The B2K reports keys decoded from DTMF on the attached line.
// TODO: capture the B2K scancode assignment; no unit has been
// available to trace it so far.
func keycodeB2K(scancode byte) (string, bool) {
	return "", false
}

func lookupKey(table []string, scancode byte) (string, bool) {
	ix, ok := foldScancode(scancode)
	if !ok || ix >= len(table) || table[ix] == "" {
		return "", false
	}
	return table[ix], true
}
