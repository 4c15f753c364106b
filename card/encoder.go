package card

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"
)

const maxVersion = 40

// Options controls how a payload is turned into a bitmap.
type Options struct {
	Version    int                  // smallest version to try; grown until the data fits
	Level      qrcode.RecoveryLevel // error correction
	ModuleSize int                  // pixels per module
	Border     int                  // quiet zone, in modules
	Foreground color.Color
	Background color.Color
}

// DefaultOptions favours scan robustness on printed cards: highest error
// correction, 10px modules and the standard 4 module quiet zone.
func DefaultOptions() Options {
	return Options{
		Version:    1,
		Level:      qrcode.Highest,
		ModuleSize: 10,
		Border:     4,
		Foreground: color.Black,
		Background: color.White,
	}
}

// ParseLevel maps a config value onto a recovery level.
func ParseLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(s) {
	case "low", "l":
		return qrcode.Low, nil
	case "medium", "m":
		return qrcode.Medium, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h", "":
		return qrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown error correction level %q", s)
}

// Encoder turns a data string into a two-tone image.
type Encoder interface {
	Encode(data string, opts Options) (image.Image, error)
}

// QREncoder encodes with github.com/skip2/go-qrcode.
type QREncoder struct{}

// Encode picks the first version >= opts.Version that holds data, then draws
// the module bitmap with the configured module size and border.
func (QREncoder) Encode(data string, opts Options) (image.Image, error) {
	q, err := fit(data, opts)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	return render(q.Bitmap(), opts), nil
}

func fit(data string, opts Options) (*qrcode.QRCode, error) {
	v := opts.Version
	if v < 1 {
		v = 1
	}
	var lastErr error
	for ; v <= maxVersion; v++ {
		q, err := qrcode.NewWithForcedVersion(data, v, opts.Level)
		if err == nil {
			return q, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("encode qr: %w", lastErr)
}

func render(bitmap [][]bool, opts Options) *image.Paletted {
	scale := opts.ModuleSize
	if scale < 1 {
		scale = 1
	}
	border := opts.Border
	if border < 0 {
		border = 0
	}
	fg, bg := opts.Foreground, opts.Background
	if fg == nil {
		fg = color.Black
	}
	if bg == nil {
		bg = color.White
	}

	dim := (len(bitmap) + 2*border) * scale
	// Index 0 is the background, so the zeroed pixel buffer starts blank.
	img := image.NewPaletted(image.Rect(0, 0, dim, dim), color.Palette{bg, fg})

	for r, row := range bitmap {
		for c, dark := range row {
			if !dark {
				continue
			}
			x0 := (c + border) * scale
			y0 := (r + border) * scale
			for y := y0; y < y0+scale; y++ {
				for x := x0; x < x0+scale; x++ {
					img.SetColorIndex(x, y, 1)
				}
			}
		}
	}
	return img
}
