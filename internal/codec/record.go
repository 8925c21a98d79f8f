package codec

import (
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"

	"environment_controller/internal/models"

	"github.com/fxamacker/cbor/v2"
)

// RecordVersion is the record layout written by EncodeRecord.
const RecordVersion = 1

// ErrUnsupportedVersion is returned for records written by an unknown layout.
var ErrUnsupportedVersion = errors.New("unsupported state record version")

// encMode uses Core Deterministic Encoding so the same state always produces
// identical bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

type overviewRecord struct {
	Started              bool    `cbor:"started"`
	DevMode              bool    `cbor:"devMode"`
	AverageTemperature   float64 `cbor:"averageTemperature"`
	AverageHumidity      float64 `cbor:"averageHumidity"`
	CarbonDioxideReading float64 `cbor:"carbonDioxideReading"`
	MaxCurrentValue      float64 `cbor:"maxCurrentValue"`
	SystemStatus         string  `cbor:"systemStatus"`
}

type actuatorRecord struct {
	Online   bool    `cbor:"online"`
	Auto     bool    `cbor:"auto"`
	P        float64 `cbor:"p"`
	I        float64 `cbor:"i"`
	D        float64 `cbor:"d"`
	Setpoint float64 `cbor:"setpoint"`
	Actual   float64 `cbor:"actual"`
}

// stateRecord is keyed by entity name so adding or removing a device does not
// shift any other device's values.
type stateRecord struct {
	Version     int                       `cbor:"version"`
	Overview    overviewRecord            `cbor:"overview"`
	Actuators   map[string]actuatorRecord `cbor:"actuators"`
	Pumps       map[string]bool           `cbor:"pumps"`
	WaterLevels map[string]bool           `cbor:"waterLevels"`
}

// MarshalRecord encodes s as a versioned CBOR record.
func MarshalRecord(s *models.State) ([]byte, error) {
	o := s.Overview
	rec := stateRecord{
		Version: RecordVersion,
		Overview: overviewRecord{
			Started:              o.Started,
			DevMode:              o.DevMode,
			AverageTemperature:   o.AverageTemperature,
			AverageHumidity:      o.AverageHumidity,
			CarbonDioxideReading: o.CarbonDioxideReading,
			MaxCurrentValue:      o.MaxCurrentValue,
			SystemStatus:         o.SystemStatus,
		},
		Actuators:   make(map[string]actuatorRecord, len(s.Actuators)),
		Pumps:       make(map[string]bool, len(s.Pumps)),
		WaterLevels: make(map[string]bool, len(s.WaterLevels)),
	}
	for _, a := range s.Actuators {
		rec.Actuators[a.Name] = actuatorRecord{
			Online: a.Online, Auto: a.Auto,
			P: a.P, I: a.I, D: a.D,
			Setpoint: a.Setpoint, Actual: a.Actual,
		}
	}
	for _, p := range s.Pumps {
		rec.Pumps[p.Name] = p.Online
	}
	for _, w := range s.WaterLevels {
		rec.WaterLevels[w.Name] = w.Online
	}
	b, err := encMode.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode state record: %w", err)
	}
	return b, nil
}

// UnmarshalRecord resets s to defaults and applies the record in data.
// Entities absent from the record keep their defaults; record entries with
// no configured entity are listed in the report.
func UnmarshalRecord(data []byte, s *models.State) (DecodeReport, error) {
	var rep DecodeReport
	var rec stateRecord
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return rep, fmt.Errorf("decode state record: %w", err)
	}
	if rec.Version != RecordVersion {
		return rep, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version)
	}

	s.InitializeDefaults()
	s.Overview = models.SystemOverview{
		Started:              rec.Overview.Started,
		DevMode:              rec.Overview.DevMode,
		AverageTemperature:   finite(rec.Overview.AverageTemperature, &rep),
		AverageHumidity:      finite(rec.Overview.AverageHumidity, &rep),
		CarbonDioxideReading: finite(rec.Overview.CarbonDioxideReading, &rep),
		MaxCurrentValue:      finite(rec.Overview.MaxCurrentValue, &rep),
		SystemStatus:         rec.Overview.SystemStatus,
	}
	for name, ar := range rec.Actuators {
		a := s.Actuator(name)
		if a == nil {
			rep.Unknown = append(rep.Unknown, name)
			continue
		}
		a.Online, a.Auto = ar.Online, ar.Auto
		a.P, a.I, a.D = finite(ar.P, &rep), finite(ar.I, &rep), finite(ar.D, &rep)
		a.Setpoint, a.Actual = finite(ar.Setpoint, &rep), finite(ar.Actual, &rep)
	}
	for name, on := range rec.Pumps {
		p := s.Pump(name)
		if p == nil {
			rep.Unknown = append(rep.Unknown, name)
			continue
		}
		p.Online = on
	}
	for name, on := range rec.WaterLevels {
		w := s.WaterLevel(name)
		if w == nil {
			rep.Unknown = append(rep.Unknown, name)
			continue
		}
		w.Online = on
	}
	rep.Lines = len(rec.Actuators) + len(rec.Pumps) + len(rec.WaterLevels)
	return rep, nil
}

// finite reads NaN and the infinities as zero and counts them as malformed.
func finite(f float64, rep *DecodeReport) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		rep.Malformed++
		return 0
	}
	return f
}

// EncodeRecord writes the record form of s to w.
func EncodeRecord(w io.Writer, s *models.State) error {
	b, err := MarshalRecord(s)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// DecodeRecord reads a whole record from r and applies it to s.
func DecodeRecord(r io.Reader, s *models.State) (DecodeReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return DecodeReport{}, fmt.Errorf("read state record: %w", err)
	}
	return UnmarshalRecord(data, s)
}
