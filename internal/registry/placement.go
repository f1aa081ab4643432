package registry

import "github.com/warpdl/stickers/internal/sticker"

// place returns the rectangle for a new sticker of kind k: cascaded from
// the last created sticker by the configured offset, with each axis wrapped
// back to the margin when the window would leave the screen.
func place(last *sticker.Rect, k sticker.Kind, o Options) sticker.Rect {
	size := sticker.DefaultSize(k)
	r := sticker.Rect{Left: o.Margin, Top: o.Margin, Width: size.Width, Height: size.Height}
	if last == nil {
		return r
	}
	r.Left = last.Left + o.Offset
	r.Top = last.Top + o.Offset
	if o.Screen.Width > 0 && r.Left+r.Width > o.Screen.Width {
		r.Left = o.Margin
	}
	if o.Screen.Height > 0 && r.Top+r.Height > o.Screen.Height {
		r.Top = o.Margin
	}
	if r.Left < 0 {
		r.Left = 0
	}
	if r.Top < 0 {
		r.Top = 0
	}
	return r
}

// clampSize grows r to the kind's minimum size.
func clampSize(k sticker.Kind, r sticker.Rect) sticker.Rect {
	min := sticker.MinSize(k)
	if r.Width < min.Width {
		r.Width = min.Width
	}
	if r.Height < min.Height {
		r.Height = min.Height
	}
	return r
}
