package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// compile <image>: write the raw command stream without contacting a
// printer.
func compileCmd(a *app) *cobra.Command {
	var label labelFlags
	var output, printer string

	cmd := &cobra.Command{
		Use:   "compile <image|->",
		Short: "Compile an image into a raster command stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readImage(cmd, args[0])
			if err != nil {
				return err
			}

			stream, err := a.service().Compile(printer, data, label.Options(cmd.Flags())...)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(stream)
				return err
			}
			if err := os.WriteFile(output, stream, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			a.logger.Info("wrote command stream", "path", output, "bytes", len(stream), "rows", stream.Rows())
			return nil
		},
	}
	label.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&printer, "printer", "p", "", "configured printer whose label defaults apply")
	return cmd
}
