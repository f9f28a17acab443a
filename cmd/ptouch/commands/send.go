package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orrn/ptouch/internal/transport"
)

// send <device-uri> <image>: compile and write the stream straight to a
// raw device. There is no job tracking on this path.
func sendCmd(a *app) *cobra.Command {
	var label labelFlags
	var printer string

	cmd := &cobra.Command{
		Use:   "send <device-uri> <image|->",
		Short: "Send a label to a tcp://, usb:// or serial:// device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := transport.Parse(args[0]); err != nil {
				return err
			}
			data, err := readImage(cmd, args[1])
			if err != nil {
				return err
			}

			stream, err := a.service().Compile(printer, data, label.Options(cmd.Flags())...)
			if err != nil {
				return err
			}
			if err := transport.Send(cmd.Context(), args[0], stream); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d bytes to %s\n", len(stream), args[0])
			return nil
		},
	}
	label.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&printer, "printer", "p", "", "configured printer whose label defaults apply")
	return cmd
}

func portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports usable with serial:// device URIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := transport.Ports()
			if err != nil {
				return err
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
