package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run a simulation and print the final world state as JSON",
	RunE:  snapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func snapshot(cmd *cobra.Command, args []string) error {
	e, err := runBounded(cmd, "snapshot")
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(e.Snapshot())
}
