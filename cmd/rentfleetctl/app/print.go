package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/rentfleet/internal/vehicle"
)

func printStatus(w io.Writer, list []vehicle.Status) error {
	table := uitable.New()
	table.MaxColWidth = 32
	table.AddRow("NAME", "PHASE", "SPEED", "POSITION", "OCCUPANT", "TARIFF", "TRIP", "FEATURES")

	for _, st := range list {
		table.AddRow(
			st.Name,
			st.Phase,
			strconv.FormatFloat(st.Speed, 'f', 1, 64),
			fmt.Sprintf("%.2f,%.2f", st.Position.X, st.Position.Y),
			orDash(st.Occupant),
			orDash(st.Tariff),
			fmt.Sprintf("%.2fs", st.TripTime),
			features(st),
		)
	}

	_, err := fmt.Fprintln(w, table)
	return err
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func features(st vehicle.Status) string {
	var out string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{st.AirConditioner, "ac"},
		{st.Heater, "heater"},
		{st.Navigator, "nav"},
	} {
		if !f.on {
			continue
		}
		if out != "" {
			out += ","
		}
		out += f.name
	}
	if out == "" {
		return "-"
	}
	return out
}
