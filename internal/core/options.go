package core

import "fmt"

const (
	DefaultTapeWidth = 12
	DefaultThreshold = 128
)

// Printable cross-tape dots per supported tape width.
var printableDots = map[int]int{
	12: 70,
	18: 112,
	24: 128,
}

// PrintConfig controls binarization and the device configuration
// written ahead of the raster data.
type PrintConfig struct {
	TapeWidth      int   `json:"tape_width" yaml:"tape_width"`
	Threshold      uint8 `json:"threshold" yaml:"threshold"`
	HighResolution bool  `json:"high_resolution" yaml:"high_resolution"`
	AutoCut        bool  `json:"auto_cut" yaml:"auto_cut"`
	HalfCut        bool  `json:"half_cut" yaml:"half_cut"`
	Rotate         bool  `json:"rotate" yaml:"rotate"`
	Fit            bool  `json:"fit" yaml:"fit"`
}

func DefaultPrintConfig() PrintConfig {
	return PrintConfig{
		TapeWidth: DefaultTapeWidth,
		Threshold: DefaultThreshold,
		AutoCut:   true,
		HalfCut:   true,
	}
}

func (c PrintConfig) Validate() error {
	if _, ok := printableDots[c.TapeWidth]; !ok {
		return fmt.Errorf("%w: tape width %d mm (supported: 12, 18, 24)", ErrInvalidConfig, c.TapeWidth)
	}
	return nil
}

// PrintableDots returns the number of cross-tape dots the printer can
// mark on tapeWidth, or 0 for an unsupported width.
func PrintableDots(tapeWidth int) int {
	return printableDots[tapeWidth]
}

// PrintOption overrides one field of the default PrintConfig.
type PrintOption func(*PrintConfig)

func WithTapeWidth(mm int) PrintOption {
	return func(c *PrintConfig) { c.TapeWidth = mm }
}

func WithThreshold(threshold uint8) PrintOption {
	return func(c *PrintConfig) { c.Threshold = threshold }
}

func WithHighResolution(on bool) PrintOption {
	return func(c *PrintConfig) { c.HighResolution = on }
}

func WithAutoCut(on bool) PrintOption {
	return func(c *PrintConfig) { c.AutoCut = on }
}

func WithHalfCut(on bool) PrintOption {
	return func(c *PrintConfig) { c.HalfCut = on }
}

// WithRotate turns the label a quarter turn clockwise before compiling.
func WithRotate(on bool) PrintOption {
	return func(c *PrintConfig) { c.Rotate = on }
}

// WithFit downscales images that exceed the tape's printable height.
func WithFit(on bool) PrintOption {
	return func(c *PrintConfig) { c.Fit = on }
}

// NewPrintConfig applies opts on top of DefaultPrintConfig and validates
// the result.
func NewPrintConfig(opts ...PrintOption) (PrintConfig, error) {
	cfg := DefaultPrintConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
