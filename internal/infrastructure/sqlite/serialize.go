package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/spatrac/internal/domain/entity"
)

// Formato de línea del historial: "<acción> at <timestamp> by <actor>".
// La acción puede llevar espacios; actor y timestamp no contienen
// " by " ni " at ", así que se parte por la última ocurrencia.
func parseHandlingLine(line string) (entity.HandlingEvent, error) {
	byIdx := strings.LastIndex(line, " by ")
	if byIdx < 0 {
		return entity.HandlingEvent{}, fmt.Errorf("malformed handling entry %q", line)
	}
	actor := line[byIdx+len(" by "):]
	rest := line[:byIdx]
	atIdx := strings.LastIndex(rest, " at ")
	if atIdx < 0 {
		return entity.HandlingEvent{}, fmt.Errorf("malformed handling entry %q", line)
	}
	ts, err := time.Parse(time.DateTime, rest[atIdx+len(" at "):])
	if err != nil {
		return entity.HandlingEvent{}, fmt.Errorf("malformed handling timestamp in %q: %w", line, err)
	}
	return entity.HandlingEvent{Timestamp: ts, Actor: actor, Action: rest[:atIdx]}, nil
}

func historyFromText(text string) ([]entity.HandlingEvent, error) {
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	events := make([]entity.HandlingEvent, 0, len(lines))
	for _, line := range lines {
		e, err := parseHandlingLine(line)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// Formato de línea de temperatura: "<timestamp>: <celsius>°C (<ubicación>)".
// El timestamp tiene ancho fijo (time.DateTime, 19 caracteres).
func parseTemperatureLine(line string) (entity.TemperatureReading, error) {
	const tsWidth = len(time.DateTime)
	if len(line) < tsWidth+2 {
		return entity.TemperatureReading{}, fmt.Errorf("malformed temperature entry %q", line)
	}
	ts, err := time.Parse(time.DateTime, line[:tsWidth])
	if err != nil {
		return entity.TemperatureReading{}, fmt.Errorf("malformed temperature timestamp in %q: %w", line, err)
	}
	rest := line[tsWidth+2:]
	degIdx := strings.Index(rest, "°C")
	openIdx := strings.LastIndex(rest, " (")
	if degIdx < 0 || openIdx < 0 || !strings.HasSuffix(rest, ")") {
		return entity.TemperatureReading{}, fmt.Errorf("malformed temperature entry %q", line)
	}
	celsius, err := decimal.NewFromString(rest[:degIdx])
	if err != nil {
		return entity.TemperatureReading{}, fmt.Errorf("malformed temperature value in %q: %w", line, err)
	}
	return entity.TemperatureReading{
		Timestamp: ts,
		Celsius:   celsius,
		Location:  rest[openIdx+2 : len(rest)-1],
	}, nil
}

func temperaturesFromText(text string) ([]entity.TemperatureReading, error) {
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	readings := make([]entity.TemperatureReading, 0, len(lines))
	for _, line := range lines {
		r, err := parseTemperatureLine(line)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, nil
}
