package builder

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Printer fonts are not available locally, so text is measured with
// the Go fonts. Proportional outline fonts come close to Go Regular.

// metricsSize is the size faces are built at; widths scale linearly.
const metricsSize = 100

var (
	metricsOnce  sync.Once
	regularFace  font.Face
	monoFace     font.Face
	metricsError error
)

func loadMetrics() {
	newFace := func(ttf []byte) (font.Face, error) {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil, err
		}
		return opentype.NewFace(f, &opentype.FaceOptions{Size: metricsSize, DPI: pointsPerInch, Hinting: font.HintingNone})
	}
	regularFace, metricsError = newFace(goregular.TTF)
	if metricsError != nil {
		return
	}
	monoFace, metricsError = newFace(gomono.TTF)
}

// measureText returns the advance of text in points.
func measureText(text string, size float64, mono bool) float64 {
	metricsOnce.Do(loadMetrics)
	if metricsError != nil {
		return float64(len([]rune(text))) * size * 0.5
	}
	face := regularFace
	if mono {
		face = monoFace
	}
	return toPoints(font.MeasureString(face, text)) * size / metricsSize
}

func toPoints(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
