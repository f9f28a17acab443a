package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preamble(tape, mode, advanced, feed byte) []byte {
	var b []byte
	b = append(b, make([]byte, 400)...)
	b = append(b, 0x1B, 0x40)
	b = append(b, 0x1B, 0x69, 0x61, 0x01)
	b = append(b, 0x1B, 0x69, 0x7A, 0x84, 0x00, tape, 0x00, 0xAA, 0x02, 0x00, 0x00, 0x00, 0x00)
	b = append(b, 0x1B, 0x69, 0x4D, mode)
	b = append(b, 0x1B, 0x69, 0x41, 0x01)
	b = append(b, 0x1B, 0x69, 0x4B, advanced)
	b = append(b, 0x1B, 0x69, 0x64, feed, 0x00)
	b = append(b, 0x4D, 0x02)
	return b
}

func blankMatrix(w, h int) *PixelMatrix {
	rows := make([][]uint8, h)
	for y := range rows {
		rows[y] = make([]uint8, w)
	}
	return &PixelMatrix{Width: w, Height: h, Data: rows}
}

func rowAt(s CommandStream, x int) []byte {
	start := PreambleLength + x*20
	return s[start : start+20]
}

func TestCompileSingleBlankPixel(t *testing.T) {
	img := &Image{Width: 1, Height: 1, Channels: 4, Data: []byte{255, 255, 255, 255}}
	m, err := Binarize(img, DefaultThreshold)
	require.NoError(t, err)

	stream, err := Compile(m, DefaultPrintConfig())
	require.NoError(t, err)

	want := preamble(12, 0x40, 0x0C, 14)
	want = append(want, 0x47, 0x11, 0x00, 0x0F)
	want = append(want, make([]byte, 16)...)
	want = append(want, 0x1A)

	assert.Equal(t, want, []byte(stream))
	assert.Equal(t, 1, stream.Rows())
}

func TestCompilePreamble(t *testing.T) {
	tests := []struct {
		name string
		opts []PrintOption
		want []byte
	}{
		{"defaults", nil, preamble(12, 0x40, 0x0C, 14)},
		{"high resolution", []PrintOption{WithHighResolution(true)}, preamble(12, 0x40, 0x4C, 28)},
		{"24mm tape", []PrintOption{WithTapeWidth(24)}, preamble(24, 0x40, 0x0C, 14)},
		{"18mm tape", []PrintOption{WithTapeWidth(18)}, preamble(18, 0x40, 0x0C, 14)},
		{"no auto cut", []PrintOption{WithAutoCut(false)}, preamble(12, 0x00, 0x0C, 14)},
		{"full cut", []PrintOption{WithHalfCut(false)}, preamble(12, 0x40, 0x08, 14)},
		{"full cut high resolution", []PrintOption{WithHalfCut(false), WithHighResolution(true)}, preamble(12, 0x40, 0x48, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewPrintConfig(tt.opts...)
			require.NoError(t, err)

			stream, err := Compile(blankMatrix(0, 0), cfg)
			require.NoError(t, err)

			require.Len(t, tt.want, PreambleLength)
			assert.Equal(t, tt.want, []byte(stream[:PreambleLength]))
			assert.Equal(t, []byte{0x1A}, []byte(stream[PreambleLength:]))
			assert.Equal(t, 0, stream.Rows())
		})
	}
}

func TestCompileBitPlacement(t *testing.T) {
	tests := []struct {
		name      string
		tape      int
		height    int
		markY     int
		wantIndex int
		wantMask  byte
	}{
		{"12mm first pin is offset by margin", 12, 70, 0, 6, 0x04},
		{"12mm pin 3", 12, 70, 3, 7, 0x80},
		{"12mm last printable pin", 12, 70, 69, 15, 0x20},
		{"24mm first pin", 24, 128, 0, 4, 0x80},
		{"24mm pin 7", 24, 128, 7, 4, 0x01},
		{"24mm pin 8", 24, 128, 8, 5, 0x80},
		{"24mm last pin", 24, 128, 127, 19, 0x01},
		{"18mm pin 10", 18, 112, 10, 5, 0x20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := blankMatrix(1, tt.height)
			m.Data[tt.markY][0] = 1

			stream, err := Compile(m, PrintConfig{TapeWidth: tt.tape, AutoCut: true, HalfCut: true})
			require.NoError(t, err)

			row := rowAt(stream, 0)
			want := make([]byte, 20)
			copy(want, []byte{0x47, 0x11, 0x00, 0x0F})
			want[tt.wantIndex] = tt.wantMask
			assert.Equal(t, want, row)
		})
	}
}

func TestCompileColumnsBecomeRows(t *testing.T) {
	m := blankMatrix(3, 16)
	m.Data[0][0] = 1
	m.Data[15][2] = 1
	m.Data[8][2] = 1

	stream, err := Compile(m, PrintConfig{TapeWidth: 24})
	require.NoError(t, err)
	require.Equal(t, 3, stream.Rows())

	assert.Equal(t, byte(0x80), rowAt(stream, 0)[4])
	assert.Equal(t, make([]byte, 16), rowAt(stream, 1)[4:])
	assert.Equal(t, byte(0x81), rowAt(stream, 2)[5])
	assert.Equal(t, byte(0x1A), stream[len(stream)-1])
}

func TestCompileDropsDotsPastHead(t *testing.T) {
	m := blankMatrix(1, 140)
	for y := range m.Data {
		m.Data[y][0] = 1
	}

	stream, err := Compile(m, DefaultPrintConfig())
	require.NoError(t, err)

	row := rowAt(stream, 0)
	assert.Equal(t, []byte{0x47, 0x11, 0x00, 0x0F}, row[:4])
	// margin 21 leaves pins 0-20 blank
	assert.Equal(t, []byte{0x00, 0x00, 0x07}, row[4:7])
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 13), row[7:])
	assert.Equal(t, 1, stream.Rows())
}

func TestCompileRejectsInvalidInput(t *testing.T) {
	_, err := Compile(&PixelMatrix{Width: 2, Height: 1, Data: [][]uint8{{1}}}, DefaultPrintConfig())
	assert.ErrorIs(t, err, ErrInvalidPixelMatrix)

	_, err = Compile(&PixelMatrix{Width: 1, Height: 1, Data: [][]uint8{{3}}}, DefaultPrintConfig())
	assert.ErrorIs(t, err, ErrInvalidPixelMatrix)

	_, err = Compile(blankMatrix(1, 1), PrintConfig{TapeWidth: 9})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCommandStreamRows(t *testing.T) {
	assert.Equal(t, -1, CommandStream(nil).Rows())
	assert.Equal(t, -1, CommandStream(make([]byte, PreambleLength+5)).Rows())
}
