package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Node is a single notation symbol: identity, class, bounding box and an
// optional foreground mask aligned to that box. Bottom and Right are
// exclusive. Attachment and precedence edges are not stored on the node;
// NotationGraph owns them.
type Node struct {
	ID        int            `json:"id"`
	ClassName string         `json:"className"`
	Top       int            `json:"top"`
	Left      int            `json:"left"`
	Bottom    int            `json:"bottom"`
	Right     int            `json:"right"`
	Mask      *Mask          `json:"mask,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func (n *Node) Height() int { return n.Bottom - n.Top }
func (n *Node) Width() int  { return n.Right - n.Left }

// CenterY is the vertical center of the bounding box.
func (n *Node) CenterY() float64 {
	return float64(n.Top+n.Bottom) / 2
}

// Contains reports whether other's bounding box lies entirely inside n's.
func (n *Node) Contains(other *Node) bool {
	return n.Top <= other.Top && n.Left <= other.Left &&
		n.Bottom >= other.Bottom && n.Right >= other.Right
}

// Overlaps reports whether the two bounding boxes share at least one pixel.
func (n *Node) Overlaps(other *Node) bool {
	return max(n.Top, other.Top) < min(n.Bottom, other.Bottom) &&
		max(n.Left, other.Left) < min(n.Right, other.Right)
}

// Foreground reports whether the absolute pixel (row, col) belongs to the
// symbol. Without a mask the whole bounding box counts.
func (n *Node) Foreground(row, col int) bool {
	if row < n.Top || row >= n.Bottom || col < n.Left || col >= n.Right {
		return false
	}
	if n.Mask == nil {
		return true
	}
	return n.Mask.At(row-n.Top, col-n.Left)
}

// foregroundCount is the number of foreground pixels of the symbol.
func (n *Node) foregroundCount() int {
	if n.Mask == nil {
		return n.Height() * n.Width()
	}
	return n.Mask.Count()
}

// MaskRecall returns the fraction of other's foreground pixels that are
// also foreground in n.
func (n *Node) MaskRecall(other *Node) float64 {
	total := other.foregroundCount()
	if total == 0 {
		return 0
	}
	shared := 0
	for r := max(n.Top, other.Top); r < min(n.Bottom, other.Bottom); r++ {
		for c := max(n.Left, other.Left); c < min(n.Right, other.Right); c++ {
			if n.Foreground(r, c) && other.Foreground(r, c) {
				shared++
			}
		}
	}
	return float64(shared) / float64(total)
}

// OccupiedRows returns the topmost and bottommost absolute rows that have at
// least one foreground pixel within columns [colFrom, colTo). ok is false
// when the slice is empty.
func (n *Node) OccupiedRows(colFrom, colTo int) (top, bottom int, ok bool) {
	top, bottom = -1, -1
	for r := n.Top; r < n.Bottom; r++ {
		for c := max(colFrom, n.Left); c < min(colTo, n.Right); c++ {
			if n.Foreground(r, c) {
				if top < 0 {
					top = r
				}
				bottom = r
				break
			}
		}
	}
	return top, bottom, top >= 0
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	out := *n
	if n.Mask != nil {
		out.Mask = n.Mask.Clone()
	}
	out.Data = cloneData(n.Data)
	return &out
}

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d[%d,%d,%d,%d]", n.ClassName, n.ID, n.Top, n.Left, n.Bottom, n.Right)
}

// VerticalDice is the Dice coefficient of the vertical extents of a and b.
func VerticalDice(a, b *Node) float64 {
	total := a.Height() + b.Height()
	if total == 0 {
		return 0
	}
	overlap := max(0, min(a.Bottom, b.Bottom)-max(a.Top, b.Top))
	return 2 * float64(overlap) / float64(total)
}

func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch vv := v.(type) {
		case []int:
			out[k] = append([]int(nil), vv...)
		case []any:
			out[k] = append([]any(nil), vv...)
		case map[string]any:
			out[k] = maps.Clone(vv)
		default:
			out[k] = v
		}
	}
	return out
}

// ---------- Mask ----------

// Mask is a binary foreground mask in row-major order.
type Mask struct {
	rows, cols int
	bits       []bool
}

// NewMask returns an all-background mask of the given shape.
func NewMask(rows, cols int) *Mask {
	return &Mask{rows: rows, cols: cols, bits: make([]bool, rows*cols)}
}

// ParseMask builds a mask from rows of '0'/'1' characters. All rows must be
// the same length.
func ParseMask(rows []string) (*Mask, error) {
	if len(rows) == 0 {
		return NewMask(0, 0), nil
	}
	m := NewMask(len(rows), len(rows[0]))
	for r, line := range rows {
		if len(line) != m.cols {
			return nil, fmt.Errorf("mask row %d: length %d, want %d", r, len(line), m.cols)
		}
		for c, ch := range line {
			switch ch {
			case '1':
				m.bits[r*m.cols+c] = true
			case '0':
			default:
				return nil, fmt.Errorf("mask row %d: invalid character %q", r, ch)
			}
		}
	}
	return m, nil
}

func (m *Mask) Rows() int { return m.rows }
func (m *Mask) Cols() int { return m.cols }

// At reports the pixel value; out-of-range coordinates are background.
func (m *Mask) At(r, c int) bool {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		return false
	}
	return m.bits[r*m.cols+c]
}

func (m *Mask) Set(r, c int, v bool) {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		return
	}
	m.bits[r*m.cols+c] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

func (m *Mask) Clone() *Mask {
	return &Mask{rows: m.rows, cols: m.cols, bits: append([]bool(nil), m.bits...)}
}

// Strings renders the mask as rows of '0'/'1' characters.
func (m *Mask) Strings() []string {
	out := make([]string, m.rows)
	var sb strings.Builder
	for r := range m.rows {
		sb.Reset()
		for c := range m.cols {
			if m.At(r, c) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		out[r] = sb.String()
	}
	return out
}

func (m *Mask) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Strings())
}

func (m *Mask) UnmarshalJSON(b []byte) error {
	var rows []string
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	parsed, err := ParseMask(rows)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}
