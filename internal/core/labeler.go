package core

import (
	"context"
	"fmt"
	"log/slog"
)

// DecodeHints bound the size of a decoded image. Zero means no limit.
type DecodeHints struct {
	MaxWidth  int
	MaxHeight int
}

// Decoder turns an encoded image into raw pixel data.
type Decoder interface {
	DecodeFile(path string, hints DecodeHints) (*Image, error)
	DecodeBytes(data []byte, hints DecodeHints) (*Image, error)
}

// Labeler chains decoding, binarization, compilation and the job
// lifecycle into single calls.
type Labeler struct {
	decoder    Decoder
	controller *Controller
	logger     *slog.Logger
}

// NewLabeler returns a Labeler. controller may be nil when only the
// Compile methods are used.
func NewLabeler(decoder Decoder, controller *Controller, logger *slog.Logger) *Labeler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Labeler{decoder: decoder, controller: controller, logger: logger}
}

func (l *Labeler) PrintFile(ctx context.Context, printerURI, path string, opts ...PrintOption) (*JobResult, error) {
	stream, err := l.CompileFile(path, opts...)
	if err != nil {
		return nil, err
	}
	return l.run(ctx, printerURI, stream)
}

func (l *Labeler) PrintBuffer(ctx context.Context, printerURI string, data []byte, opts ...PrintOption) (*JobResult, error) {
	stream, err := l.CompileBuffer(data, opts...)
	if err != nil {
		return nil, err
	}
	return l.run(ctx, printerURI, stream)
}

// CompileFile builds the command stream for the image at path without
// contacting a printer.
func (l *Labeler) CompileFile(path string, opts ...PrintOption) (CommandStream, error) {
	cfg, err := NewPrintConfig(opts...)
	if err != nil {
		return nil, err
	}
	img, err := l.decoder.DecodeFile(path, hintsFor(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return l.compile(img, cfg)
}

func (l *Labeler) CompileBuffer(data []byte, opts ...PrintOption) (CommandStream, error) {
	cfg, err := NewPrintConfig(opts...)
	if err != nil {
		return nil, err
	}
	img, err := l.decoder.DecodeBytes(data, hintsFor(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return l.compile(img, cfg)
}

func (l *Labeler) compile(img *Image, cfg PrintConfig) (CommandStream, error) {
	m, err := Binarize(img, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	if cfg.Rotate {
		m = Rotate(m)
	}
	stream, err := Compile(m, cfg)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("compiled label",
		"width", m.Width,
		"height", m.Height,
		"tape_width", cfg.TapeWidth,
		"bytes", len(stream))
	return stream, nil
}

func (l *Labeler) run(ctx context.Context, printerURI string, stream CommandStream) (*JobResult, error) {
	if l.controller == nil {
		return nil, fmt.Errorf("%w: labeler has no printer controller", ErrInvalidConfig)
	}
	return l.controller.Run(ctx, printerURI, stream)
}

// hintsFor limits the decoded image so the label's cross-tape extent
// fits the printable dots. Rotation swaps which axis that is.
func hintsFor(cfg PrintConfig) DecodeHints {
	if !cfg.Fit {
		return DecodeHints{}
	}
	dots := PrintableDots(cfg.TapeWidth)
	if cfg.Rotate {
		return DecodeHints{MaxWidth: dots}
	}
	return DecodeHints{MaxHeight: dots}
}
