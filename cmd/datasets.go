package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TFMV/hapviz/server"
)

func datasetsCmd(a *app) *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the data files the preview server would offer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				dataDir = a.cfg.Server.DataDir
			}
			datasets, err := server.NewStore(dataDir, a.cfg, a.logger).List()
			if err != nil {
				return err
			}

			w := out(cmd)
			if len(datasets) == 0 {
				ui.Warn.Fprintf(w, "  no data files in %s\n", dataDir)
				return nil
			}
			for _, ds := range datasets {
				fmt.Fprintf(w, "  %s %s\n", ds.Key, ui.Subtle.Sprint(ds.Name))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory of data files (default from config)")
	return cmd
}
