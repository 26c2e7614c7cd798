package document

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Canvas geometry in pixels.
const (
	CanvasWidth = 1240

	margin      = 60
	gutter      = 40
	photoWidth  = 250
	photoHeight = 300 // 5:6
	sigHeight   = 150
	blockGap    = 28
	rowGap      = 14
)

// sheet is everything the composer draws, resolved ahead of time.
type sheet struct {
	title    string
	subtitle string
	photo    image.Image
	caption  string
	noPhoto  string
	sections []renderedSection
	sigs     []string
	footer   string
}

type renderedSection struct {
	title  string
	fields []renderedField
}

type renderedField struct {
	label string
	value string
}

// composer draws top to bottom. With a nil dst it only advances y, which
// is how the final canvas height is measured before allocating it.
type composer struct {
	dst   *image.RGBA
	faces *faces
	pal   Palette
	y     int
}

func (c *composer) fill(r image.Rectangle, col color.Color) {
	if c.dst == nil {
		return
	}
	draw.Draw(c.dst, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *composer) stroke(r image.Rectangle, col color.Color, w int) {
	c.fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), col)
	c.fill(image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), col)
	c.fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), col)
	c.fill(image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), col)
}

func (c *composer) text(face font.Face, col color.Color, x, top int, s string) {
	if c.dst == nil || s == "" {
		return
	}
	d := font.Drawer{
		Dst:  c.dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, top+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func (c *composer) centered(face font.Face, col color.Color, left, right, top int, s string) {
	w := font.MeasureString(face, s).Ceil()
	c.text(face, col, left+(right-left-w)/2, top, s)
}

func lineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil() + 4
}

func (c *composer) compose(s *sheet) {
	c.fill(image.Rect(0, 0, CanvasWidth, 1<<20), c.pal.Background)
	c.y = 0
	c.banner(s)
	c.y += blockGap
	c.photo(s)
	for _, sec := range s.sections {
		c.y += blockGap
		c.section(sec)
	}
	if len(s.sigs) > 0 {
		c.y += blockGap * 2
		c.signatures(s.sigs)
	}
	c.y += blockGap * 2
	c.footer(s.footer)
	c.y += margin / 2
}

func (c *composer) banner(s *sheet) {
	top := c.y
	y := top + 36
	titleH := lineHeight(c.faces.title)
	subH := 0
	if s.subtitle != "" {
		subH = lineHeight(c.faces.banner) + 10
	}
	bottom := y + titleH + subH + 30
	c.fill(image.Rect(0, top, CanvasWidth, bottom), c.pal.Banner)
	c.centered(c.faces.title, c.pal.BannerText, 0, CanvasWidth, y, s.title)
	if s.subtitle != "" {
		c.centered(c.faces.banner, c.pal.BannerText, 0, CanvasWidth, y+titleH+10, s.subtitle)
	}
	c.y = bottom
}

func (c *composer) photo(s *sheet) {
	left := (CanvasWidth - photoWidth) / 2
	box := image.Rect(left, c.y, left+photoWidth, c.y+photoHeight)
	if s.photo != nil {
		c.cover(box, s.photo)
	} else {
		c.fill(box, c.pal.Placeholder)
		mid := box.Min.Y + (photoHeight-lineHeight(c.faces.body))/2
		c.centered(c.faces.body, c.pal.Muted, box.Min.X, box.Max.X, mid, s.noPhoto)
	}
	c.stroke(box, c.pal.Border, 2)
	c.y = box.Max.Y + 8
	c.centered(c.faces.small, c.pal.Muted, 0, CanvasWidth, c.y, s.caption)
	c.y += lineHeight(c.faces.small)
}

// cover scales src to fill box, cropping the excess around the center.
func (c *composer) cover(box image.Rectangle, src image.Image) {
	if c.dst == nil {
		return
	}
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}
	want := float64(box.Dx()) / float64(box.Dy())
	have := float64(sb.Dx()) / float64(sb.Dy())
	crop := sb
	if have > want {
		w := int(float64(sb.Dy()) * want)
		x0 := sb.Min.X + (sb.Dx()-w)/2
		crop = image.Rect(x0, sb.Min.Y, x0+w, sb.Max.Y)
	} else if have < want {
		h := int(float64(sb.Dx()) / want)
		y0 := sb.Min.Y + (sb.Dy()-h)/2
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+h)
	}
	draw.CatmullRom.Scale(c.dst, box, src, crop, draw.Src, nil)
}

func (c *composer) section(sec renderedSection) {
	headH := lineHeight(c.faces.heading) + 16
	c.fill(image.Rect(margin, c.y, CanvasWidth-margin, c.y+headH), c.pal.HeadingBg)
	c.fill(image.Rect(margin, c.y, margin+6, c.y+headH), c.pal.Heading)
	c.text(c.faces.heading, c.pal.Heading, margin+20, c.y+8, sec.title)
	c.y += headH + rowGap

	colW := (CanvasWidth - 2*margin - gutter) / 2
	for i := 0; i < len(sec.fields); i += 2 {
		h := c.field(margin, colW, sec.fields[i])
		if i+1 < len(sec.fields) {
			h = max(h, c.field(margin+colW+gutter, colW, sec.fields[i+1]))
		}
		c.y += h + rowGap
	}
}

// field draws "Label : value" with the value wrapping under the label, and
// returns the height used.
func (c *composer) field(x, width int, f renderedField) int {
	label := f.label + " : "
	labelW := font.MeasureString(c.faces.label, label).Ceil()
	c.text(c.faces.label, c.pal.Label, x, c.y, label)

	lh := lineHeight(c.faces.body)
	lines := wrap(c.faces.body, f.value, width, labelW)
	for i, line := range lines {
		lx := x
		if i == 0 {
			lx += labelW
		}
		c.text(c.faces.body, c.pal.Text, lx, c.y+i*lh, line)
	}
	return max(1, len(lines)) * lh
}

func (c *composer) signatures(labels []string) {
	n := len(labels)
	boxW := (CanvasWidth - 2*margin - (n-1)*gutter) / n
	for i, label := range labels {
		x := margin + i*(boxW+gutter)
		box := image.Rect(x, c.y, x+boxW, c.y+sigHeight)
		c.stroke(box, c.pal.Border, 2)
		c.centered(c.faces.label, c.pal.Label, box.Min.X, box.Max.X, box.Min.Y+12, label)
	}
	c.y += sigHeight
}

func (c *composer) footer(text string) {
	c.fill(image.Rect(margin, c.y, CanvasWidth-margin, c.y+1), c.pal.Border)
	c.y += 12
	c.centered(c.faces.small, c.pal.Muted, 0, CanvasWidth, c.y, text)
	c.y += lineHeight(c.faces.small)
}

// wrap splits s into lines no wider than width. The first line starts
// indent pixels in. Words wider than a line are broken by rune.
func wrap(face font.Face, s string, width, indent int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	space := font.MeasureString(face, " ").Ceil()
	var lines []string
	var cur strings.Builder
	curW, avail := 0, width-indent

	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curW, avail = 0, width
	}
	for _, w := range words {
		ww := font.MeasureString(face, w).Ceil()
		if cur.Len() > 0 && curW+space+ww > avail {
			flush()
		}
		if ww > avail {
			chunks, tailW := breakWord(face, w, avail, width)
			for _, chunk := range chunks[:len(chunks)-1] {
				cur.WriteString(chunk)
				flush()
			}
			cur.WriteString(chunks[len(chunks)-1])
			curW = tailW
			continue
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
			curW += space
		}
		cur.WriteString(w)
		curW += ww
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// breakWord cuts w into chunks that each fit a line, the first one in
// first pixels and the others in width. Advances are summed in one pass, the
// way font.MeasureString does. Every chunk holds at least one rune. The last
// chunk is returned with its width so the caller can keep filling its line.
func breakWord(face font.Face, w string, first, width int) ([]string, int) {
	var (
		chunks []string
		acc    fixed.Int26_6
		prev   rune = -1
		start  int
		avail  = first
	)
	for i, r := range w {
		var kern fixed.Int26_6
		if prev >= 0 {
			kern = face.Kern(prev, r)
		}
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		if i > start && (acc+kern+adv).Ceil() > avail {
			chunks = append(chunks, w[start:i])
			start, acc, kern, avail = i, 0, 0, width
		}
		acc += kern + adv
		prev = r
	}
	chunks = append(chunks, w[start:])
	return chunks, acc.Ceil()
}
