package ir

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Color is a packed 0xRRGGBBAA color.
type Color uint32

// RGBA packs four 8-bit channels.
func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

func (c Color) R() uint8 { return uint8(c >> 24) }
func (c Color) G() uint8 { return uint8(c >> 16) }
func (c Color) B() uint8 { return uint8(c >> 8) }
func (c Color) A() uint8 { return uint8(c) }

// CSS renders the color the way hosts receive it: "#rrggbbaa".
func (c Color) CSS() string {
	return fmt.Sprintf("#%08x", uint32(c))
}

// Matrix is a 2D affine transform in canvas order:
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
type Matrix struct {
	A, B, C, D, E, F float64
}

// IdentityMatrix returns the identity transform.
func IdentityMatrix() Matrix {
	return Matrix{A: 1, D: 1}
}

// Multiply returns m * n (n applied first, then m).
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply transforms a point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// TextMetrics is the result of a measure_text query.
type TextMetrics struct {
	ActualBoundingBoxAscent  float64 `json:"actual_bounding_box_ascent"`
	ActualBoundingBoxDescent float64 `json:"actual_bounding_box_descent"`
	ActualBoundingBoxLeft    float64 `json:"actual_bounding_box_left"`
	ActualBoundingBoxRight   float64 `json:"actual_bounding_box_right"`
	FontBoundingBoxAscent    float64 `json:"font_bounding_box_ascent"`
	FontBoundingBoxDescent   float64 `json:"font_bounding_box_descent"`
	Width                    float64 `json:"width"`
}

// CodePage identifies the encoding of text payloads. Values follow the
// Windows code page numbers that guests report.
type CodePage int

const (
	CodePageUTF8    CodePage = 65001
	CodePage1252    CodePage = 1252
	CodePage437     CodePage = 437
	CodePageLatin1  CodePage = 28591
	DefaultCodePage          = CodePageUTF8
)

var codePageNames = map[CodePage]string{
	CodePageUTF8:   "utf-8",
	CodePage1252:   "windows-1252",
	CodePage437:    "cp437",
	CodePageLatin1: "iso-8859-1",
}

// ParseCodePage resolves a code page by name. Matching is case-insensitive.
func ParseCodePage(name string) (CodePage, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for cp, n := range codePageNames {
		if n == name {
			return cp, nil
		}
	}
	return 0, fmt.Errorf("unsupported code page %q", name)
}

func (cp CodePage) String() string {
	if n, ok := codePageNames[cp]; ok {
		return n
	}
	return fmt.Sprintf("cp%d", int(cp))
}

// Valid reports whether the code page is supported.
func (cp CodePage) Valid() bool {
	_, ok := codePageNames[cp]
	return ok
}

func (cp CodePage) charmap() *charmap.Charmap {
	switch cp {
	case CodePage1252:
		return charmap.Windows1252
	case CodePage437:
		return charmap.CodePage437
	case CodePageLatin1:
		return charmap.ISO8859_1
	}
	return nil
}

// Encode converts UTF-8 text into the code page. Runes the code page cannot
// represent become its replacement byte. The result never aliases s.
func (cp CodePage) Encode(s string) []byte {
	cm := cp.charmap()
	if cm == nil {
		return []byte(s)
	}
	out, err := encoding.ReplaceUnsupported(cm.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

// Decode converts code page bytes back to UTF-8.
func (cp CodePage) Decode(b []byte) string {
	cm := cp.charmap()
	if cm == nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	out, err := cm.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// PixelsSizeEstimate returns the byte size of a w x h RGBA pixel block,
// rounded up.
func PixelsSizeEstimate(width, height float64) int {
	return int(math.Ceil(width * height * 4))
}
