package core

import "fmt"

// Binarize converts img to a PixelMatrix. A pixel is marked when its
// luminance is strictly below threshold.
func Binarize(img *Image, threshold uint8) (*PixelMatrix, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrMalformedImage)
	}
	switch img.Channels {
	case 1, 2, 3, 4:
	default:
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedImageFormat, img.Channels)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrMalformedImage, img.Width, img.Height)
	}
	// compare by division so huge dimensions cannot wrap the product
	if img.Height > len(img.Data)/img.Channels/img.Width {
		return nil, fmt.Errorf("%w: %d bytes of pixel data for %dx%dx%d", ErrMalformedImage,
			len(img.Data), img.Width, img.Height, img.Channels)
	}

	cutoff := float64(threshold)
	rows := make([][]uint8, img.Height)
	for y := 0; y < img.Height; y++ {
		row := make([]uint8, img.Width)
		for x := 0; x < img.Width; x++ {
			pos := (x + img.Width*y) * img.Channels
			if luminance(img.Data[pos:pos+img.Channels]) < cutoff {
				row[x] = 1
			}
		}
		rows[y] = row
	}

	return &PixelMatrix{
		Width:  img.Width,
		Height: img.Height,
		Data:   rows,
	}, nil
}

// luminance expects len(px) to be a supported channel count.
func luminance(px []byte) float64 {
	switch len(px) {
	case 1:
		return float64(px[0])
	case 2:
		return float64(px[0]) * float64(px[1]) / 255
	case 3:
		return rgbLuminance(px[0], px[1], px[2])
	default:
		return rgbLuminance(px[0], px[1], px[2]) * float64(px[3]) / 255
	}
}

func rgbLuminance(r, g, b byte) float64 {
	return 0.21*float64(r) + 0.72*float64(g) + 0.07*float64(b)
}

// Rotate returns m turned a quarter turn clockwise.
func Rotate(m *PixelMatrix) *PixelMatrix {
	rows := make([][]uint8, m.Width)
	for x := 0; x < m.Width; x++ {
		col := make([]uint8, 0, m.Height)
		for y := m.Height - 1; y >= 0; y-- {
			col = append(col, m.Data[y][x])
		}
		rows[x] = col
	}
	return &PixelMatrix{
		Width:  m.Height,
		Height: m.Width,
		Data:   rows,
	}
}
