package document

import (
	"image/color"
	"time"
)

// Source is one record as the renderer sees it.
type Source struct {
	ID           int64
	Name         string
	RegisteredAt time.Time
	PhotoRef     string
	Fields       map[string]any
}

// Section groups fields under a heading, in display order.
type Section struct {
	Title string
	Keys  []string
}

// Layout describes a sheet. Text producers receive the source so that
// titles can embed the registration number.
type Layout struct {
	// Kind labels metrics and spans ("cambiste", "operateur").
	Kind             string
	Title            string
	Subtitle         func(Source) string
	PhotoCaption     string
	PhotoPlaceholder string
	Sections         []Section
	// Signatures draws one empty box per label below the sections.
	Signatures []string
	Footer     func(generated string) string
	FileName   func(Source) string
}

// Palette is the set of colors used on the canvas.
type Palette struct {
	Background  color.RGBA
	Banner      color.RGBA
	BannerText  color.RGBA
	Heading     color.RGBA
	HeadingBg   color.RGBA
	Label       color.RGBA
	Text        color.RGBA
	Muted       color.RGBA
	Border      color.RGBA
	Placeholder color.RGBA
}

// DefaultPalette follows the authority's blue letterhead.
var DefaultPalette = Palette{
	Background:  color.RGBA{0xff, 0xff, 0xff, 0xff},
	Banner:      color.RGBA{0x1e, 0x3a, 0x8a, 0xff},
	BannerText:  color.RGBA{0xff, 0xff, 0xff, 0xff},
	Heading:     color.RGBA{0x1e, 0x3a, 0x8a, 0xff},
	HeadingBg:   color.RGBA{0xe8, 0xee, 0xfb, 0xff},
	Label:       color.RGBA{0x37, 0x41, 0x51, 0xff},
	Text:        color.RGBA{0x11, 0x18, 0x27, 0xff},
	Muted:       color.RGBA{0x6b, 0x72, 0x80, 0xff},
	Border:      color.RGBA{0xcb, 0xd5, 0xe1, 0xff},
	Placeholder: color.RGBA{0xf1, 0xf5, 0xf9, 0xff},
}
