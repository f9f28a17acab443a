package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orrn/ptouch/internal/service"
)

// print <printer> <image|->: compile the image and run it as an IPP job.
func printCmd(a *app) *cobra.Command {
	var label labelFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "print <printer-name|printer-uri> <image|->",
		Short: "Print an image and wait for the job to finish",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.PrintRequest{
				Printer: args[0],
				Options: label.Options(cmd.Flags()),
			}
			if args[1] == "-" {
				data, err := readImage(cmd, args[1])
				if err != nil {
					return err
				}
				req.Image = data
			} else {
				req.Path = args[1]
			}

			outcome, err := a.service().Print(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(outcome)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %d %s after %d polls\n",
				outcome.Result.JobID, outcome.Result.State, outcome.Result.Attempts)
			return nil
		},
	}
	label.AddFlags(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the job result as JSON")
	return cmd
}
