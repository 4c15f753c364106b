package card

import (
	"image/color"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQREncoderVersionOne(t *testing.T) {
	img, err := QREncoder{}.Encode("1234", DefaultOptions())
	require.NoError(t, err)

	// version 1 is 21 modules, plus a 4 module border each side, at 10px
	b := img.Bounds()
	assert.Equal(t, 290, b.Dx())
	assert.Equal(t, 290, b.Dy())

	assert.True(t, isColor(img.At(0, 0), color.White), "border is background")
	assert.True(t, isColor(img.At(40, 40), color.Black), "finder pattern corner is foreground")
}

func TestQREncoderFitsLargerPayload(t *testing.T) {
	p, err := NewPayload("S001", "HW01")
	require.NoError(t, err)
	data, err := p.JSON()
	require.NoError(t, err)

	img, err := QREncoder{}.Encode(data, DefaultOptions())
	require.NoError(t, err)

	modules := img.Bounds().Dx()/10 - 8
	assert.Greater(t, modules, 21, "payload does not fit version 1 at highest level")
	assert.Equal(t, 0, (modules-17)%4)
}

func TestQREncoderStartsAtRequestedVersion(t *testing.T) {
	opts := DefaultOptions()
	opts.Version = 5
	opts.ModuleSize = 1
	opts.Border = 0

	img, err := QREncoder{}.Encode("1", opts)
	require.NoError(t, err)
	assert.Equal(t, 37, img.Bounds().Dx())
}

func TestQREncoderTooLong(t *testing.T) {
	long := make([]byte, 4000)
	for i := range long {
		long[i] = 'x'
	}
	_, err := QREncoder{}.Encode(string(long), DefaultOptions())
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]qrcode.RecoveryLevel{
		"":        qrcode.Highest,
		"highest": qrcode.Highest,
		"H":       qrcode.Highest,
		"high":    qrcode.High,
		"medium":  qrcode.Medium,
		"low":     qrcode.Low,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("ultra")
	assert.Error(t, err)
}

func isColor(c, want color.Color) bool {
	r1, g1, b1, a1 := c.RGBA()
	r2, g2, b2, a2 := want.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}
