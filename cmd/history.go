package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetsim/pkg/export"
)

var historyFormat string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Run a simulation and print every tick's metrics sample",
	RunE:  history,
}

func init() {
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "csv", "output format: csv or json")
	rootCmd.AddCommand(historyCmd)
}

func history(cmd *cobra.Command, args []string) error {
	e, err := runBounded(cmd, "history")
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()
	return export.Write(cmd.OutOrStdout(), historyFormat, e.MetricsHistory())
}
