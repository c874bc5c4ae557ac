package ticket

import (
	"image"
	"image/color"
)

// MaxLogoDots is the widest raster that fits the printable area of 80mm paper
const MaxLogoDots = 576

// RasterizeLogo converts an image to a 1-bit raster. Dark pixels print, transparent ones do not.
// The image should already be scaled to at most MaxLogoDots wide; wider images are cropped.
func RasterizeLogo(img image.Image) *Raster {
	bounds := img.Bounds()
	width := bounds.Dx()
	if width > MaxLogoDots {
		width = MaxLogoDots
	}
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil
	}

	widthBytes := (width + 7) / 8
	data := make([]byte, widthBytes*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if isDark(img.At(bounds.Min.X+x, bounds.Min.Y+y)) {
				data[y*widthBytes+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return &Raster{WidthBytes: widthBytes, Height: height, Data: data}
}

func isDark(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return false
	}
	// ITU-R 601 luma on 16-bit channels
	luma := (299*r + 587*g + 114*b) / 1000
	return luma < 0x8000
}
