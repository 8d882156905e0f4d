package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

var iconOnce struct {
	sync.Once
	data []byte
}

// iconData renders the tray icon: a 32x32 rounded square in the LISE
// accent blue with a lighter center dot. Drawn in code so the tray
// binary carries no asset files.
func iconData() []byte {
	iconOnce.Do(func() {
		const size = 32
		accent := color.NRGBA{R: 0x1f, G: 0x6f, B: 0xeb, A: 0xff}
		center := color.NRGBA{R: 0xd6, G: 0xe4, B: 0xff, A: 0xff}

		img := image.NewNRGBA(image.Rect(0, 0, size, size))
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				// Clip the corners for a rounded look.
				cx, cy := x, y
				if cx >= size/2 {
					cx = size - 1 - cx
				}
				if cy >= size/2 {
					cy = size - 1 - cy
				}
				if cx+cy < 4 {
					continue
				}

				dx, dy := x-size/2, y-size/2
				if dx*dx+dy*dy <= (size/5)*(size/5) {
					img.SetNRGBA(x, y, center)
				} else {
					img.SetNRGBA(x, y, accent)
				}
			}
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			// Encoding an in-memory NRGBA image cannot fail in practice;
			// an empty icon just leaves the platform default.
			return
		}
		iconOnce.data = buf.Bytes()
	})
	return iconOnce.data
}
