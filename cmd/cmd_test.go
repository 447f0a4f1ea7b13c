package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/core/sim"
)

func execute(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		cfgPath, ticks, seed, historyFormat = "", -1, 0, "csv"
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.Bytes()
}

func TestSnapshotCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "simulation:\n  num_vehicles: 2\n  num_riders: 1\n  num_charging_stations: 1\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	out := execute(t, "snapshot", "-c", path, "-n", "4", "--seed", "3")
	var snap sim.Snapshot
	require.NoError(t, json.Unmarshal(out, &snap))
	assert.Equal(t, 4, snap.Tick)
	assert.Equal(t, 10, snap.Width)
	assert.GreaterOrEqual(t, len(snap.Agents), 3)
}

func TestRunCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "run:\n  ticks: 6\nmetrics:\n  sinks:\n    - type: nop\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	out := execute(t, "run", "-c", path)
	var last coremetrics.Sample
	require.NoError(t, json.Unmarshal(out, &last))
	assert.Equal(t, 6, last.Tick)
	assert.Equal(t, 7, last.Vehicles)
}

func TestHistoryCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"), 0o644))

	out := execute(t, "history", "-c", path, "-n", "5")
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "tick", rows[0][0])
	assert.Equal(t, "5", rows[5][0])

	out = execute(t, "history", "-c", path, "-n", "3", "-f", "json")
	var samples []coremetrics.Sample
	require.NoError(t, json.Unmarshal(out, &samples))
	assert.Len(t, samples, 3)
}

func TestSnapshotRequiresBoundedRun(t *testing.T) {
	rootCmd.SetArgs([]string{"snapshot", "-n", "0"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() {
		ticks = -1
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	assert.Error(t, rootCmd.Execute())
}
