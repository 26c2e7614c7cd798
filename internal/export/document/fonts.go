package document

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	parseFonts sync.Once
	regularTTF *opentype.Font
	boldTTF    *opentype.Font
	fontErr    error
)

func loadFonts() error {
	parseFonts.Do(func() {
		if regularTTF, fontErr = opentype.Parse(goregular.TTF); fontErr != nil {
			fontErr = fmt.Errorf("parse regular font: %w", fontErr)
			return
		}
		if boldTTF, fontErr = opentype.Parse(gobold.TTF); fontErr != nil {
			fontErr = fmt.Errorf("parse bold font: %w", fontErr)
		}
	})
	return fontErr
}

// faces holds one set of font faces. Faces keep glyph caches and must not
// be shared between goroutines, so each render opens its own set.
type faces struct {
	title   font.Face
	banner  font.Face
	heading font.Face
	label   font.Face
	body    font.Face
	small   font.Face
}

func openFaces() (*faces, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	var f faces
	specs := []struct {
		dst  *font.Face
		src  *opentype.Font
		size float64
	}{
		{&f.title, boldTTF, 34},
		{&f.banner, regularTTF, 19},
		{&f.heading, boldTTF, 23},
		{&f.label, boldTTF, 19},
		{&f.body, regularTTF, 19},
		{&f.small, regularTTF, 16},
	}
	for _, s := range specs {
		face, err := opentype.NewFace(s.src, &opentype.FaceOptions{Size: s.size, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			f.close()
			return nil, fmt.Errorf("open face: %w", err)
		}
		*s.dst = face
	}
	return &f, nil
}

func (f *faces) close() {
	for _, face := range []font.Face{f.title, f.banner, f.heading, f.label, f.body, f.small} {
		if face != nil {
			_ = face.Close()
		}
	}
}
