package archive

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"arefa/internal/registry/models"
)

// UnknownName replaces names that sanitize to nothing.
const UnknownName = "Inconnu"

// DefaultPhotoExt is used when the photo reference has no extension.
const DefaultPhotoExt = ".jpg"

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SafeName makes a display name usable in a file name: accents are folded,
// runs of whitespace, hyphens and underscores become one "_", every other
// non-alphanumeric rune is dropped and separators are trimmed.
//
//	"Jean-Paul II!" → "Jean_Paul_II"
func SafeName(name string) string {
	folded, _, err := transform.String(foldAccents, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return UnknownName
	}
	return b.String()
}

// PhotoExt is the extension of ref, or DefaultPhotoExt.
func PhotoExt(ref string) string {
	if ext := path.Ext(ref); ext != "" && ext != "." {
		return ext
	}
	return DefaultPhotoExt
}

// DocumentEntry is the archive-relative document name for a record.
func DocumentEntry(id int64, name string) string {
	return "Fiche-" + models.IDFragment(id) + "-" + SafeName(name) + ".pdf"
}

// PhotoEntry is the archive-relative photo name for a record.
func PhotoEntry(id int64, name, ref string) string {
	return "Photo-" + models.IDFragment(id) + "-" + SafeName(name) + PhotoExt(ref)
}

// entryNames hands out archive entry names, suffixing repeats with "-2",
// "-3", ... before the extension so no entry shadows another.
type entryNames map[string]bool

func (n entryNames) claim(name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	out := name
	for i := 2; n[out]; i++ {
		out = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	n[out] = true
	return out
}
