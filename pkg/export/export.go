// Package export writes a metrics history in formats consumed by charting
// tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/core/model"
)

// WriteJSON writes the samples to w as a JSON array.
func WriteJSON(w io.Writer, samples []metrics.Sample) error {
	enc := json.NewEncoder(w)
	return enc.Encode(samples)
}

// WriteCSV writes one row per sample with a header line. Per-state vehicle
// counts follow the fixed columns in state declaration order.
func WriteCSV(w io.Writer, samples []metrics.Sample) error {
	cw := csv.NewWriter(w)
	header := []string{
		"tick", "vehicle_availability", "vehicle_utilization", "average_wait_time",
		"vehicles", "riders", "mean_battery", "riders_spawned", "pickups",
	}
	for _, st := range model.AllVehicleStates {
		header = append(header, st.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		rec := []string{
			strconv.Itoa(s.Tick),
			formatFloat(s.VehicleAvailability),
			formatFloat(s.VehicleUtilization),
			formatFloat(s.AverageWaitTime),
			strconv.Itoa(s.Vehicles),
			strconv.Itoa(s.Riders),
			formatFloat(s.MeanBattery),
			strconv.Itoa(s.RidersSpawned),
			strconv.Itoa(s.Pickups),
		}
		for _, st := range model.AllVehicleStates {
			rec = append(rec, strconv.Itoa(s.StateCounts[st]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches to WriteCSV or WriteJSON by format name.
func Write(w io.Writer, format string, samples []metrics.Sample) error {
	switch format {
	case "csv":
		return WriteCSV(w, samples)
	case "json":
		return WriteJSON(w, samples)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
