package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func archiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage job journal archives",
	}
	cmd.AddCommand(archiveRunCmd(a), archiveListCmd(a), archiveReadCmd(a))
	return cmd
}

func archiveRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Archive finished jobs older than database.archive_days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			archiver, err := a.archiver(store)
			if err != nil {
				return err
			}
			record, err := archiver.Run(cmd.Context())
			if err != nil {
				return err
			}
			if record == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to archive")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "archived %d jobs to %s\n", record.JobCount, record.ArchiveFile)
			return nil
		},
	}
}

func archiveListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archive files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archiver, err := a.archiver(nil)
			if err != nil {
				return err
			}
			files, err := archiver.List()
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", f.Filename, f.Size, f.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

// read writes every archived job as one JSON object per line.
func archiveReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <archive-file>",
		Short: "Print the jobs stored in an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archiver, err := a.archiver(nil)
			if err != nil {
				return err
			}
			jobs, err := archiver.Read(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, j := range jobs {
				if err := enc.Encode(j); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
