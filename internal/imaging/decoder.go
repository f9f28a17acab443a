// Package imaging decodes PNG, JPEG and GIF files into the raw pixel
// layout the binarizer expects.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"

	"github.com/nfnt/resize"

	"github.com/orrn/ptouch/internal/core"
)

// Decoder implements core.Decoder.
type Decoder struct {
	logger *slog.Logger
}

func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Decoder{logger: logger}
}

func (d *Decoder) DecodeFile(path string, hints core.DecodeHints) (*core.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return d.decode(f, hints)
}

func (d *Decoder) DecodeBytes(data []byte, hints core.DecodeHints) (*core.Image, error) {
	return d.decode(bytes.NewReader(data), hints)
}

func (d *Decoder) decode(r io.Reader, hints core.DecodeHints) (*core.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", core.ErrUnsupportedImageFormat, err)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedImage, err)
	}

	size := img.Bounds().Size()
	img = Fit(img, hints)
	fitted := img.Bounds().Size()
	d.logger.Debug("decoded image",
		"format", format,
		"width", size.X,
		"height", size.Y,
		"fitted_width", fitted.X,
		"fitted_height", fitted.Y)

	return ToRaw(img), nil
}

// Fit downscales img, keeping its aspect ratio, until it is within the
// limits in hints. Images already inside the limits are returned as is.
func Fit(img image.Image, hints core.DecodeHints) image.Image {
	size := img.Bounds().Size()
	if hints.MaxHeight > 0 && size.Y > hints.MaxHeight {
		img = resize.Resize(0, uint(hints.MaxHeight), img, resize.Lanczos3)
		size = img.Bounds().Size()
	}
	if hints.MaxWidth > 0 && size.X > hints.MaxWidth {
		img = resize.Resize(uint(hints.MaxWidth), 0, img, resize.Lanczos3)
	}
	return img
}

type opaquer interface {
	Opaque() bool
}

// ToRaw flattens img into interleaved 8-bit channels. Gray images keep a
// single channel, opaque images carry RGB and the rest carry
// non-premultiplied RGBA.
func ToRaw(img image.Image) *core.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		data := make([]byte, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := src.PixOffset(b.Min.X, y)
			data = append(data, src.Pix[off:off+w]...)
		}
		return &core.Image{Width: w, Height: h, Channels: 1, Data: data}
	case *image.Gray16:
		data := make([]byte, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				data = append(data, color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y)
			}
		}
		return &core.Image{Width: w, Height: h, Channels: 1, Data: data}
	}

	if o, ok := img.(opaquer); ok && o.Opaque() {
		data := make([]byte, 0, w*h*3)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				data = append(data, c.R, c.G, c.B)
			}
		}
		return &core.Image{Width: w, Height: h, Channels: 3, Data: data}
	}

	data := make([]byte, 0, w*h*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			data = append(data, c.R, c.G, c.B, c.A)
		}
	}
	return &core.Image{Width: w, Height: h, Channels: 4, Data: data}
}
