package client

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// RenderState writes the statuses and the sensor list as two tables.
func RenderState(w io.Writer, state *domain.State) {
	if state == nil {
		_, _ = fmt.Fprintln(w, "<nil state>")

		return
	}

	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.AppendHeader(table.Row{"Arming", "Alarm", "Cat", "Sensors idle", "Updated"})
	summary.AppendRow(table.Row{
		state.ArmingStatus,
		state.AlarmStatus,
		yesNo(state.CatDisplayed),
		yesNo(state.SensorStatus),
		formatTime(state.UpdatedAt),
	})
	summary.Render()

	if len(state.Sensors) == 0 {
		_, _ = fmt.Fprintln(w, "No sensors registered.")

		return
	}

	sensors := table.NewWriter()
	sensors.SetOutputMirror(w)
	sensors.AppendHeader(table.Row{"Name", "Type", "Active"})

	for _, sensor := range state.Sensors {
		sensors.AppendRow(table.Row{sensor.Name, sensor.Type, yesNo(sensor.Active)})
	}

	sensors.Render()
}

// FormatEvent renders an event as a single log line.
func FormatEvent(event domain.Event) string {
	timestamp := formatTime(event.Timestamp)

	switch event.Kind {
	case domain.EventAlarmStatus:
		return fmt.Sprintf("%s alarm %s", timestamp, event.AlarmStatus)
	case domain.EventCatDetected:
		verdict := "no cat"
		if event.CatPresent {
			verdict = "cat detected"
		}

		return fmt.Sprintf("%s camera %s", timestamp, verdict)
	default:
		return fmt.Sprintf("%s %s", timestamp, event.Kind)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Local().Format(time.DateTime)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}

	return "no"
}
