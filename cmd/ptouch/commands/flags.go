package commands

import (
	"github.com/spf13/pflag"

	"github.com/orrn/ptouch/internal/core"
)

// labelFlags binds the label options shared by print, compile and send.
// Only flags the user set override the printer's defaults.
type labelFlags struct {
	tapeWidth      int
	threshold      uint8
	highResolution bool
	autoCut        bool
	halfCut        bool
	rotate         bool
	fit            bool
}

func (f *labelFlags) AddFlags(flagSet *pflag.FlagSet) {
	def := core.DefaultPrintConfig()
	flagSet.IntVarP(&f.tapeWidth, "tape", "t", def.TapeWidth, "tape width in mm (12, 18, 24)")
	flagSet.Uint8Var(&f.threshold, "threshold", def.Threshold, "luminance below which a pixel prints")
	flagSet.BoolVar(&f.highResolution, "hi-res", def.HighResolution, "print at double resolution along the tape")
	flagSet.BoolVar(&f.autoCut, "auto-cut", def.AutoCut, "cut after the label")
	flagSet.BoolVar(&f.halfCut, "half-cut", def.HalfCut, "cut through the tape but not the backing")
	flagSet.BoolVarP(&f.rotate, "rotate", "r", def.Rotate, "rotate the image 90 degrees clockwise")
	flagSet.BoolVar(&f.fit, "fit", def.Fit, "scale the image down to the printable height")
}

func (f *labelFlags) Options(flagSet *pflag.FlagSet) []core.PrintOption {
	var opts []core.PrintOption
	if flagSet.Changed("tape") {
		opts = append(opts, core.WithTapeWidth(f.tapeWidth))
	}
	if flagSet.Changed("threshold") {
		opts = append(opts, core.WithThreshold(f.threshold))
	}
	if flagSet.Changed("hi-res") {
		opts = append(opts, core.WithHighResolution(f.highResolution))
	}
	if flagSet.Changed("auto-cut") {
		opts = append(opts, core.WithAutoCut(f.autoCut))
	}
	if flagSet.Changed("half-cut") {
		opts = append(opts, core.WithHalfCut(f.halfCut))
	}
	if flagSet.Changed("rotate") {
		opts = append(opts, core.WithRotate(f.rotate))
	}
	if flagSet.Changed("fit") {
		opts = append(opts, core.WithFit(f.fit))
	}
	return opts
}
