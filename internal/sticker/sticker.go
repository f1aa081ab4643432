// Package sticker defines the sticker data model shared by the store,
// registry and scheduler, together with the versioned codec for the
// kind-specific content payload.
package sticker

import (
	"fmt"
	"strings"
)

// Kind selects the content variant carried by a sticker.
type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindTimer    Kind = "timer"
	KindCommand  Kind = "command"
)

// ParseKind validates a stored kind string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindMarkdown, KindTimer, KindCommand:
		return k, nil
	}
	return "", fmt.Errorf("unknown sticker kind %q", s)
}

// State is the window state of a sticker.
type State string

const (
	StateOpen      State = "open"
	StateMinimized State = "minimized"
	StateClosed    State = "closed"
)

// ParseState validates a stored state string.
func ParseState(s string) (State, error) {
	switch st := State(s); st {
	case StateOpen, StateMinimized, StateClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown sticker state %q", s)
}

// Color is the background palette entry of a sticker.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPink   Color = "pink"
	ColorGray   Color = "gray"
)

// Colors lists the palette in display order.
var Colors = []Color{ColorYellow, ColorGreen, ColorBlue, ColorPink, ColorGray}

// ParseColor maps a stored color name to a palette entry. Unknown names
// fall back to gray.
func ParseColor(s string) Color {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Colors {
		if c == known {
			return c
		}
	}
	return ColorGray
}

// Rect is a window rectangle in window-manager pixels.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size is a width/height pair.
type Size struct {
	Width  int
	Height int
}

// DefaultSize returns the initial window size for a new sticker of kind k.
func DefaultSize(k Kind) Size {
	switch k {
	case KindTimer:
		return Size{Width: 300, Height: 200}
	case KindCommand:
		return Size{Width: 300, Height: 400}
	default:
		return Size{Width: 400, Height: 300}
	}
}

// MinSize returns the smallest window size the UI may resize a sticker to.
func MinSize(k Kind) Size {
	if k == KindCommand {
		return Size{Width: 100, Height: 100}
	}
	return Size{Width: 200, Height: 100}
}

// Sticker is one persisted sticker row. Content holds the encoded payload;
// use Decode to obtain the typed variant.
type Sticker struct {
	ID        int64
	Title     string
	State     State
	Rect      Rect
	TopMost   bool
	Color     Color
	Kind      Kind
	Content   string
	CreatedAt int64
	UpdatedAt int64
}

// Clone returns a copy of s.
func (s *Sticker) Clone() *Sticker {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Validate checks the row-level invariants that hold regardless of kind.
func (s *Sticker) Validate() error {
	if _, err := ParseKind(string(s.Kind)); err != nil {
		return err
	}
	if _, err := ParseState(string(s.State)); err != nil {
		return err
	}
	if err := ValidateRect(s.Kind, s.Rect); err != nil {
		return err
	}
	if s.CreatedAt != 0 && s.UpdatedAt < s.CreatedAt {
		return fmt.Errorf("updated_at %d before created_at %d", s.UpdatedAt, s.CreatedAt)
	}
	return nil
}

// ValidateRect rejects rectangles smaller than the kind's minimum size.
func ValidateRect(k Kind, r Rect) error {
	min := MinSize(k)
	if r.Width < min.Width || r.Height < min.Height {
		return fmt.Errorf("size %dx%d below minimum %dx%d for %s sticker",
			r.Width, r.Height, min.Width, min.Height, k)
	}
	return nil
}
