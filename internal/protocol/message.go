package protocol

// ID selects a route. Update* ids are canonical, Log* ids are intents.
type ID string

const (
	IDUpdateActuatorPower     ID = "UpdateActuatorPower"
	IDUpdateActuatorMode      ID = "UpdateActuatorMode"
	IDUpdatePIDInput          ID = "UpdatePIDInput"
	IDUpdatePIDSetpoint       ID = "UpdatePIDSetpoint"
	IDUpdatePIDActual         ID = "UpdatePIDActual"
	IDUpdateSystemOverview    ID = "UpdateSystemOverview"
	IDUpdateEnvironmentSensor ID = "UpdateEnvironmentSensor"
	IDUpdatePumpStatus        ID = "UpdatePumpStatus"
	IDUpdateWaterLevel        ID = "UpdateWaterLevel"
	IDUpdateDevMode           ID = "UpdateDevMode"
	IDUpdateStart             ID = "UpdateStart"
	IDUpdateStop              ID = "UpdateStop"

	IDLogStart            ID = "LogStart"
	IDLogStop             ID = "LogStop"
	IDLogDeveloperMode    ID = "LogDeveloperMode"
	IDLogPumpStatus       ID = "LogPumpStatus"
	IDLogActuatorPower    ID = "LogActuatorPower"
	IDLogActuatorMode     ID = "LogActuatorMode"
	IDLogActuatorPID      ID = "LogActuatorPID"
	IDLogActuatorSetpoint ID = "LogActuatorSetpoint"
)

// State literals carried in the "state" field.
const (
	StateOn     = "On"
	StateOff    = "Off"
	StateAuto   = "Auto"
	StateManual = "Manual"
)

// Overview field names addressed by UpdateSystemOverview.
const (
	OverviewAverageTemperature   = "averageTemperature"
	OverviewAverageHumidity      = "averageHumidity"
	OverviewCarbonDioxideReading = "carbonDioxideReading"
	OverviewCurrentAmps          = "currentAmps"
	OverviewSystemStatus         = "systemStatus"
	OverviewMaxCurrentValue      = "maxCurrentValue"
)

// Message is the closed set of decoded inbound messages.
type Message interface {
	ID() ID
	// Raw is the payload exactly as received.
	Raw() []byte
	isMessage()
}

// Canonical reports whether m is an authoritative Update message that is
// echoed verbatim after being applied.
func Canonical(m Message) bool {
	switch m.(type) {
	case UpdateActuatorPower, UpdateActuatorMode, UpdatePIDInput, UpdatePIDSetpoint, UpdatePIDActual,
		UpdateSystemOverview, UpdateEnvironmentSensor, UpdatePumpStatus, UpdateWaterLevel,
		UpdateDevMode, UpdateStart, UpdateStop:
		return true
	}
	return false
}

type raw []byte

func (r raw) Raw() []byte { return []byte(r) }
func (raw) isMessage()    {}

// Value is a text-or-number payload. Text holds the literal for numbers so
// it can be stored as sensor/status text without reformatting.
type Value struct {
	Number   float64
	Text     string
	IsNumber bool
}

type UpdateActuatorPower struct {
	raw
	Name string
	On   bool
}

func (UpdateActuatorPower) ID() ID { return IDUpdateActuatorPower }

type UpdateActuatorMode struct {
	raw
	Name string
	Auto bool
}

func (UpdateActuatorMode) ID() ID { return IDUpdateActuatorMode }

type UpdatePIDInput struct {
	raw
	Name    string
	P, I, D float64
}

func (UpdatePIDInput) ID() ID { return IDUpdatePIDInput }

type UpdatePIDSetpoint struct {
	raw
	Name  string
	Value float64
}

func (UpdatePIDSetpoint) ID() ID { return IDUpdatePIDSetpoint }

type UpdatePIDActual struct {
	raw
	Name  string
	Value float64
}

func (UpdatePIDActual) ID() ID { return IDUpdatePIDActual }

type UpdateSystemOverview struct {
	raw
	Name  string
	Value Value
}

func (UpdateSystemOverview) ID() ID { return IDUpdateSystemOverview }

type UpdateEnvironmentSensor struct {
	raw
	Name  string
	Value string
}

func (UpdateEnvironmentSensor) ID() ID { return IDUpdateEnvironmentSensor }

type UpdatePumpStatus struct {
	raw
	Name string
	On   bool
}

func (UpdatePumpStatus) ID() ID { return IDUpdatePumpStatus }

type UpdateWaterLevel struct {
	raw
	Name string
	On   bool
}

func (UpdateWaterLevel) ID() ID { return IDUpdateWaterLevel }

type UpdateDevMode struct {
	raw
	On bool
}

func (UpdateDevMode) ID() ID { return IDUpdateDevMode }

type UpdateStart struct{ raw }

func (UpdateStart) ID() ID { return IDUpdateStart }

type UpdateStop struct{ raw }

func (UpdateStop) ID() ID { return IDUpdateStop }

type LogStart struct{ raw }

func (LogStart) ID() ID { return IDLogStart }

type LogStop struct{ raw }

func (LogStop) ID() ID { return IDLogStop }

type LogDeveloperMode struct{ raw }

func (LogDeveloperMode) ID() ID { return IDLogDeveloperMode }

type LogPumpStatus struct {
	raw
	Name string
}

func (LogPumpStatus) ID() ID { return IDLogPumpStatus }

type LogActuatorPower struct {
	raw
	Name string
}

func (LogActuatorPower) ID() ID { return IDLogActuatorPower }

type LogActuatorMode struct {
	raw
	Name string
}

func (LogActuatorMode) ID() ID { return IDLogActuatorMode }

type LogActuatorPID struct {
	raw
	Name    string
	P, I, D float64
}

func (LogActuatorPID) ID() ID { return IDLogActuatorPID }

type LogActuatorSetpoint struct {
	raw
	Name  string
	Value float64
}

func (LogActuatorSetpoint) ID() ID { return IDLogActuatorSetpoint }

// Unrecognized is a well-formed message whose id matches no route.
type Unrecognized struct {
	raw
	RawID string
}

func (u Unrecognized) ID() ID { return ID(u.RawID) }
