// internal/lcd/display.go
package lcd

import (
	"fmt"

	"github.com/treitmayr/yealink-module/internal/state"
)

// Display remembers what character each cell currently shows. Segment
// bits live in the status image; Display only keeps the readable text
// so the line/icon surfaces can report it back. The caller serializes
// access.
type Display struct {
	chars []byte
}

// NewDisplay returns a display with every cell blanked.
func NewDisplay() *Display {
	d := &Display{chars: make([]byte, len(Elements))}
	for i := range d.chars {
		d.chars[i] = ' '
	}
	return d
}

// Clear blanks all cells, clearing their segment bits in img.
func (d *Display) Clear(img *state.Image) {
	for i := range Elements {
		d.SetChar(img, i, ' ')
	}
}

// SetChar displays one character on cell el.
// '\t' and '\n' are placeholders and leave the cell untouched.
// On a pictogram cell any character except space shows the icon.
func (d *Display) SetChar(img *state.Image, el int, ch byte) error {
	if el < 0 || el >= len(Elements) {
		return fmt.Errorf("lcd: element %d out of range", el)
	}
	if ch == '\t' || ch == '\n' {
		return nil
	}

	d.chars[el] = ch
	e := &Elements[el]

	if e.Type == '.' {
		img.SetBit(int(e.Segs[0].A), e.Segs[0].M, ch != ' ')
		return nil
	}

	val := MapToSeg7(ch)
	for i := 0; i < 7; i++ {
		m := e.Segs[i].M
		if m == 0 {
			continue
		}
		img.SetBit(int(e.Segs[i].A), m, val&(1<<i) != 0)
	}
	return nil
}

// lineSpan returns the element range of display line n (1-3).
func lineSpan(n int) (offset, size int, err error) {
	switch n {
	case 1:
		return Line1Offset, Line1Size, nil
	case 2:
		return Line2Offset, Line2Size, nil
	case 3:
		return Line3Offset, Line3Size, nil
	}
	return 0, 0, fmt.Errorf("lcd: no line %d", n)
}

// Line returns the cell type row and the current text row of line n.
func (d *Display) Line(n int) (format, text string, err error) {
	offset, size, err := lineSpan(n)
	if err != nil {
		return "", "", err
	}
	f := make([]byte, size)
	t := make([]byte, size)
	for i := 0; i < size; i++ {
		f[i] = Elements[offset+i].Type
		t[i] = d.chars[offset+i]
	}
	return string(f), string(t), nil
}

// SetLine writes text onto line n starting at its first cell. Excess
// characters are ignored; cells beyond the text keep their content.
func (d *Display) SetLine(img *state.Image, n int, text string) error {
	offset, size, err := lineSpan(n)
	if err != nil {
		return err
	}
	if len(text) > size {
		text = text[:size]
	}
	for i := 0; i < len(text); i++ {
		if err := d.SetChar(img, offset+i, text[i]); err != nil {
			return err
		}
	}
	return nil
}

// Icon is the externally visible state of one pictogram.
type Icon struct {
	Name string `json:"name"`
	On   bool   `json:"on"`
}

// Icons lists every pictogram with its current visibility.
func (d *Display) Icons() []Icon {
	var out []Icon
	for i := range Elements {
		if Elements[i].Type != '.' {
			continue
		}
		out = append(out, Icon{Name: Elements[i].Name, On: d.chars[i] != ' '})
	}
	return out
}

// SetIcon shows or hides the first pictogram matching name.
func (d *Display) SetIcon(img *state.Image, name string, on bool) error {
	for i := range Elements {
		if Elements[i].Type != '.' || Elements[i].Name != name {
			continue
		}
		ch := byte(' ')
		if on {
			ch = name[0]
		}
		return d.SetChar(img, i, ch)
	}
	return fmt.Errorf("lcd: unknown icon %q", name)
}
