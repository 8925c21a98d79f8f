package codec

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"environment_controller/internal/models"
)

// Header keys of the flat state file, in file order.
const (
	keyStarted              = "is_started"
	keyDevMode              = "devmode_enabled"
	keyAverageTemperature   = "averageTemperature"
	keyAverageHumidity      = "averageHumidity"
	keyCarbonDioxideReading = "carbonDioxideReading"
	keySystemStatus         = "systemStatus"
	keyMaxCurrentValue      = "maxCurrentValue"

	headerLines = 7
)

// DecodeReport describes what a decode could not apply cleanly. None of it is
// fatal: the affected fields keep their defaults.
type DecodeReport struct {
	// Lines is the number of non-blank lines read.
	Lines int
	// Malformed counts fields that failed to parse and read as zero.
	Malformed int
	// Mismatched lists "expected/got" pairs where a positional record named a
	// different entity than the one configured at that position.
	Mismatched []string
	// Unknown lists record names that match no configured entity.
	Unknown []string
	// Extra counts lines past the last configured entity.
	Extra int
}

// Clean reports whether the decode applied every line without remarks.
func (r DecodeReport) Clean() bool {
	return r.Malformed == 0 && len(r.Mismatched) == 0 && len(r.Unknown) == 0 && r.Extra == 0
}

// EncodeFlat writes s in the legacy line format. currentAmps and sensor values
// are not written.
func EncodeFlat(w io.Writer, s *models.State) error {
	bw := bufio.NewWriter(w)
	o := s.Overview

	fmt.Fprintf(bw, "%s %s\n", keyStarted, formatBool(o.Started))
	fmt.Fprintf(bw, "%s %s\n", keyDevMode, formatBool(o.DevMode))
	fmt.Fprintf(bw, "%s %s\n", keyAverageTemperature, formatFloat(o.AverageTemperature))
	fmt.Fprintf(bw, "%s %s\n", keyAverageHumidity, formatFloat(o.AverageHumidity))
	fmt.Fprintf(bw, "%s %s\n", keyCarbonDioxideReading, formatFloat(o.CarbonDioxideReading))
	fmt.Fprintf(bw, "%s %s\n", keySystemStatus, singleLine(o.SystemStatus))
	fmt.Fprintf(bw, "%s %s\n", keyMaxCurrentValue, formatFloat(o.MaxCurrentValue))

	for _, a := range s.Actuators {
		fmt.Fprintf(bw, "%s %s %s %s %s %s %s %s\n",
			a.Name, formatBool(a.Online), formatBool(a.Auto),
			formatFloat(a.P), formatFloat(a.I), formatFloat(a.D),
			formatFloat(a.Setpoint), formatFloat(a.Actual))
	}
	for _, p := range s.Pumps {
		fmt.Fprintf(bw, "%s %s\n", p.Name, formatBool(p.Online))
	}
	for _, wl := range s.WaterLevels {
		fmt.Fprintf(bw, "%s %s\n", wl.Name, formatBool(wl.Online))
	}
	for _, sn := range s.Sensors {
		fmt.Fprintf(bw, "%s\n", sn.Name)
	}
	return bw.Flush()
}

// DecodeFlat resets s to defaults and applies the legacy line format read
// from r. Records are positional: the n-th actuator line sets the n-th
// configured actuator regardless of the name it carries. Only read errors are
// returned; content problems land in the report.
func DecodeFlat(r io.Reader, s *models.State) (DecodeReport, error) {
	s.InitializeDefaults()

	var (
		rep     DecodeReport
		nAct    = len(s.Actuators)
		nPump   = len(s.Pumps)
		nWater  = len(s.WaterLevels)
		nSensor = len(s.Sensors)
	)
	actStart := headerLines
	pumpStart := actStart + nAct
	waterStart := pumpStart + nPump
	sensorStart := waterStart + nWater
	end := sensorStart + nSensor

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	idx := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rep.Lines++

		switch {
		case idx < headerLines:
			applyHeader(&s.Overview, idx, headerValue(line), &rep)
		case idx < pumpStart:
			applyActuator(&s.Actuators[idx-actStart], line, &rep)
		case idx < waterStart:
			p := &s.Pumps[idx-pumpStart]
			p.Online = applySwitch(p.Name, line, &rep)
		case idx < sensorStart:
			wl := &s.WaterLevels[idx-waterStart]
			wl.Online = applySwitch(wl.Name, line, &rep)
		case idx < end:
			fields := strings.Fields(line)
			checkName(s.Sensors[idx-sensorStart].Name, fields[0], &rep)
		default:
			rep.Extra++
		}
		idx++
	}
	if err := sc.Err(); err != nil {
		return rep, fmt.Errorf("read state file: %w", err)
	}
	return rep, nil
}

// headerValue returns the text after the first space, or "" when the line
// has no value.
func headerValue(line string) string {
	_, v, ok := strings.Cut(line, " ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func applyHeader(o *models.SystemOverview, idx int, v string, rep *DecodeReport) {
	switch idx {
	case 0:
		o.Started = parseBool(v, rep)
	case 1:
		o.DevMode = parseBool(v, rep)
	case 2:
		o.AverageTemperature = parseFloat(v, rep)
	case 3:
		o.AverageHumidity = parseFloat(v, rep)
	case 4:
		o.CarbonDioxideReading = parseFloat(v, rep)
	case 5:
		o.SystemStatus = v
	case 6:
		o.MaxCurrentValue = parseFloat(v, rep)
	}
}

func applyActuator(a *models.Actuator, line string, rep *DecodeReport) {
	fields := strings.Fields(line)
	checkName(a.Name, fields[0], rep)
	vals := make([]string, 7)
	copy(vals, fields[1:])

	a.Online = parseBool(vals[0], rep)
	a.Auto = parseBool(vals[1], rep)
	a.P = parseFloat(vals[2], rep)
	a.I = parseFloat(vals[3], rep)
	a.D = parseFloat(vals[4], rep)
	a.Setpoint = parseFloat(vals[5], rep)
	a.Actual = parseFloat(vals[6], rep)
}

func applySwitch(want, line string, rep *DecodeReport) bool {
	fields := strings.Fields(line)
	checkName(want, fields[0], rep)
	if len(fields) < 2 {
		return false
	}
	return parseBool(fields[len(fields)-1], rep)
}

func checkName(want, got string, rep *DecodeReport) {
	if want != got {
		rep.Mismatched = append(rep.Mismatched, want+"/"+got)
	}
}

// parseBool reads the 0/1 flag form. Missing fields are false without a
// remark; unparsable fields are false and counted.
func parseBool(v string, rep *DecodeReport) bool {
	if v == "" {
		return false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n != 0
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f != 0
	}
	rep.Malformed++
	return false
}

func parseFloat(v string, rep *DecodeReport) float64 {
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		rep.Malformed++
		return 0
	}
	return f
}

// singleLine folds control characters into spaces so a text value cannot
// split its record across lines.
func singleLine(v string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, v))
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
