// Package commands implements the ptouch command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/orrn/ptouch/internal/config"
	"github.com/orrn/ptouch/internal/imaging"
	"github.com/orrn/ptouch/internal/ipp"
	"github.com/orrn/ptouch/internal/logging"
	"github.com/orrn/ptouch/internal/service"
)

// app is shared by every subcommand once the root command has loaded
// the configuration.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func Execute(ctx context.Context) error {
	return newRootCmd(os.Stderr).ExecuteContext(ctx)
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ptouch",
		Short:         "Print raster labels on P-touch printers",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			cfg.ApplyEnv()
			if a.logLevel != "" {
				cfg.Logging.Level = a.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging, logOut)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("PTOUCH_CONFIG"), "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		printCmd(a),
		compileCmd(a),
		statusCmd(a),
		sendCmd(a),
		serveCmd(a),
		archiveCmd(a),
		hashPasswordCmd(),
		portsCmd(),
	)
	return root
}

// service wires an IPP-backed print service without journal or
// webhooks.
func (a *app) service() *service.Service {
	client := ipp.New(
		ipp.WithTimeout(a.cfg.Polling.RequestTimeout),
		ipp.WithLogger(a.logger),
	)
	return service.New(a.cfg, client, imaging.NewDecoder(a.logger), service.WithLogger(a.logger))
}

// readImage reads path, or standard input when path is "-".
func readImage(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read image from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
