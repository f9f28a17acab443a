package core

import "bytes"

const (
	invalidateLength = 400
	rowLength        = 20
	rowHeaderLength  = 4
	rasterPayload    = 0x0F
	narrowTapeMargin = 21
	marginFeedDots   = 14

	cmdRasterRow  = 0x47
	cmdRasterSub  = 0x11
	cmdPrintFeed  = 0x1A
	escape        = 0x1B
	escapeCommand = 0x69

	// print information valid flags: media width | printer recovery
	printInfoFlags = 0x84

	modeAutoCut = 0x40

	advancedHalfCut   = 0x04
	advancedNoChain   = 0x08
	advancedHighRes   = 0x40
)

// Compile builds the raster command stream for m. Each image column
// becomes one raster row across the tape; image rows map to pins.
func Compile(m *PixelMatrix, cfg PrintConfig) (CommandStream, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(invalidateLength + 64 + m.Width*rowLength + 1)

	writePreamble(&buf, cfg)

	margin := 0
	if cfg.TapeWidth == 12 {
		margin = narrowTapeMargin
	}
	row := make([]byte, rowLength)
	for x := 0; x < m.Width; x++ {
		clear(row)
		row[0] = cmdRasterRow
		row[1] = cmdRasterSub
		row[3] = rasterPayload
		for y := 0; y < m.Height; y++ {
			if m.Data[y][x] != 1 {
				continue
			}
			pin := y + margin
			idx := rowHeaderLength + pin/8
			if idx >= rowLength {
				// past the last pin of the head
				continue
			}
			row[idx] |= 1 << (7 - pin%8)
		}
		buf.Write(row)
	}

	buf.WriteByte(cmdPrintFeed)
	return CommandStream(buf.Bytes()), nil
}

func writePreamble(buf *bytes.Buffer, cfg PrintConfig) {
	// invalidate
	buf.Write(make([]byte, invalidateLength))
	// initialize
	buf.Write([]byte{escape, 0x40})
	// dynamic command mode: raster
	buf.Write([]byte{escape, escapeCommand, 0x61, 0x01})
	// print information
	buf.Write([]byte{
		escape, escapeCommand, 0x7A, printInfoFlags,
		0x00, byte(cfg.TapeWidth), 0x00,
		0xAA, 0x02, 0x00, 0x00, 0x00, 0x00,
	})
	buf.Write([]byte{escape, escapeCommand, 0x4D, modeByte(cfg)})
	// cut after every label
	buf.Write([]byte{escape, escapeCommand, 0x41, 0x01})
	buf.Write([]byte{escape, escapeCommand, 0x4B, advancedByte(cfg)})
	buf.Write([]byte{escape, escapeCommand, 0x64, marginFeed(cfg), 0x00})
	// Compression mode must be selected or some firmware skips the cut
	// and never returns to idle after 0x1A. Rows are still sent raw.
	buf.Write([]byte{0x4D, 0x02})
}

func modeByte(cfg PrintConfig) byte {
	if cfg.AutoCut {
		return modeAutoCut
	}
	return 0x00
}

func advancedByte(cfg PrintConfig) byte {
	b := byte(advancedNoChain)
	if cfg.HalfCut {
		b |= advancedHalfCut
	}
	if cfg.HighResolution {
		b |= advancedHighRes
	}
	return b
}

func marginFeed(cfg PrintConfig) byte {
	if cfg.HighResolution {
		return marginFeedDots * 2
	}
	return marginFeedDots
}

// PreambleLength is the size of everything written before the first
// raster row.
const PreambleLength = invalidateLength + 2 + 4 + 13 + 4 + 4 + 4 + 5 + 2

// Rows returns the number of raster rows in a stream produced by
// Compile, or -1 if the stream does not have that shape.
func (s CommandStream) Rows() int {
	body := len(s) - PreambleLength - 1
	if body < 0 || body%rowLength != 0 {
		return -1
	}
	return body / rowLength
}
