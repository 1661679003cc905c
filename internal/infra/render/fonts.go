package render

import (
	_ "embed"
	"errors"
	"fmt"
	"unicode"
)

// DejaVu Sans Condensed as shipped in github.com/go-pdf/fpdf v0.9.0 font/
// (Bitstream Vera derived DejaVu license, https://dejavu-fonts.github.io/License.html).
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	boldFont []byte
)

const fontFamily = "DejaVu"

// ErrUnsupportedText is returned when a value uses a script the letter font cannot draw.
var ErrUnsupportedText = errors.New("text contains characters the letter font cannot render")

// scripts covered by DejaVu Sans Condensed.
var scripts = []*unicode.RangeTable{
	unicode.Latin, unicode.Greek, unicode.Cyrillic, unicode.Armenian, unicode.Georgian,
	unicode.Common, unicode.Inherited,
}

func checkRenderable(label, s string) error {
	for _, r := range s {
		if r == unicode.ReplacementChar || !unicode.In(r, scripts...) {
			return fmt.Errorf("%w: %s has %q", ErrUnsupportedText, label, r)
		}
	}
	return nil
}
