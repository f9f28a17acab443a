package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinarize(t *testing.T) {
	tests := []struct {
		name      string
		img       *Image
		threshold uint8
		want      [][]uint8
	}{
		{
			name:      "gray dark and light",
			img:       &Image{Width: 2, Height: 1, Channels: 1, Data: []byte{10, 200}},
			threshold: 128,
			want:      [][]uint8{{1, 0}},
		},
		{
			name:      "gray equal to threshold is blank",
			img:       &Image{Width: 1, Height: 1, Channels: 1, Data: []byte{128}},
			threshold: 128,
			want:      [][]uint8{{0}},
		},
		{
			name:      "gray alpha scales luminance",
			img:       &Image{Width: 2, Height: 1, Channels: 2, Data: []byte{255, 0, 255, 255}},
			threshold: 128,
			want:      [][]uint8{{1, 0}},
		},
		{
			name: "rgb weights",
			img: &Image{Width: 3, Height: 1, Channels: 3, Data: []byte{
				255, 0, 0, // 53.55
				0, 255, 0, // 183.6
				0, 0, 255, // 17.85
			}},
			threshold: 128,
			want:      [][]uint8{{1, 0, 1}},
		},
		{
			name: "rgba transparent white is a mark",
			img: &Image{Width: 2, Height: 1, Channels: 4, Data: []byte{
				255, 255, 255, 0,
				255, 255, 255, 255,
			}},
			threshold: 128,
			want:      [][]uint8{{1, 0}},
		},
		{
			name: "row major layout",
			img: &Image{Width: 2, Height: 2, Channels: 1, Data: []byte{
				0, 255,
				255, 0,
			}},
			threshold: 128,
			want:      [][]uint8{{1, 0}, {0, 1}},
		},
		{
			name:      "zero threshold marks nothing",
			img:       &Image{Width: 1, Height: 1, Channels: 1, Data: []byte{0}},
			threshold: 0,
			want:      [][]uint8{{0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Binarize(tt.img, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.img.Width, m.Width)
			assert.Equal(t, tt.img.Height, m.Height)
			assert.Equal(t, tt.want, m.Data)
			assert.NoError(t, m.Validate())
		})
	}
}

func TestBinarizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		img     *Image
		wantErr error
	}{
		{"nil image", nil, ErrMalformedImage},
		{"five channels", &Image{Width: 1, Height: 1, Channels: 5, Data: make([]byte, 5)}, ErrUnsupportedImageFormat},
		{"zero channels", &Image{Width: 1, Height: 1, Channels: 0}, ErrUnsupportedImageFormat},
		{"zero width", &Image{Width: 0, Height: 1, Channels: 1}, ErrMalformedImage},
		{"short data", &Image{Width: 2, Height: 2, Channels: 3, Data: make([]byte, 11)}, ErrMalformedImage},
		// width*height*channels wraps to zero
		{"wrapping dimensions", &Image{Width: math.MaxInt/4 + 1, Height: 4, Channels: 4, Data: make([]byte, 16)}, ErrMalformedImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Binarize(tt.img, DefaultThreshold)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRotate(t *testing.T) {
	m := &PixelMatrix{
		Width:  3,
		Height: 2,
		Data: [][]uint8{
			{1, 0, 0},
			{0, 0, 1},
		},
	}

	r := Rotate(m)
	assert.Equal(t, 2, r.Width)
	assert.Equal(t, 3, r.Height)
	assert.Equal(t, [][]uint8{
		{0, 1},
		{0, 0},
		{1, 0},
	}, r.Data)
	assert.NoError(t, r.Validate())

	// four quarter turns restore the original
	assert.Equal(t, m.Data, Rotate(Rotate(Rotate(r))).Data)
}

func TestPixelMatrixValidate(t *testing.T) {
	tests := []struct {
		name string
		m    *PixelMatrix
	}{
		{"nil", nil},
		{"row count", &PixelMatrix{Width: 1, Height: 2, Data: [][]uint8{{0}}}},
		{"row length", &PixelMatrix{Width: 2, Height: 1, Data: [][]uint8{{0}}}},
		{"value out of range", &PixelMatrix{Width: 1, Height: 1, Data: [][]uint8{{2}}}},
		{"negative", &PixelMatrix{Width: -1, Height: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.m.Validate(), ErrInvalidPixelMatrix)
		})
	}
}
