package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func statusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <printer-name|printer-uri>",
		Short: "Query a printer's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.service().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			fmt.Fprintf(out, "%s: %s", status.Name, status.State)
			if len(status.StateReasons) > 0 {
				fmt.Fprintf(out, " (%s)", strings.Join(status.StateReasons, ", "))
			}
			fmt.Fprintln(out)
			if status.MakeAndModel != "" {
				fmt.Fprintf(out, "model: %s\n", status.MakeAndModel)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}
