// Package telemetry provides physiology health tracking, lifetime records
// and CSV output.
package telemetry

// Cause classifies why a creature died.
type Cause uint8

const (
	CauseUnknown Cause = iota
	CauseBloodloss
	CauseAsphyxiation
	CauseVitalLoss
	CauseTrauma
	CauseGibbed
	CauseAlive // Still alive when the run ended
)

var causeNames = [...]string{
	CauseUnknown:      "unknown",
	CauseBloodloss:    "bloodloss",
	CauseAsphyxiation: "asphyxiation",
	CauseVitalLoss:    "vital_loss",
	CauseTrauma:       "trauma",
	CauseGibbed:       "gibbed",
	CauseAlive:        "alive",
}

// String returns the snake_case name of the cause.
func (c Cause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return "unknown"
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (c Cause) MarshalCSV() (string, error) {
	return c.String(), nil
}

// CauseTypes maps damage types to the cause they indicate.
type CauseTypes struct {
	Bloodloss    string
	Asphyxiation string
}

// ClassifyCause picks a cause from the damage an entity carried when it died.
// The largest damage type wins. vitalLost takes precedence.
func ClassifyCause(damage map[string]float64, vitalLost bool, types CauseTypes) Cause {
	if vitalLost {
		return CauseVitalLoss
	}
	var worst string
	var worstAmount float64
	for typ, amount := range damage {
		if amount > worstAmount || (amount == worstAmount && typ < worst) {
			worst, worstAmount = typ, amount
		}
	}
	switch {
	case worst == "":
		return CauseUnknown
	case worst == types.Bloodloss:
		return CauseBloodloss
	case worst == types.Asphyxiation:
		return CauseAsphyxiation
	default:
		return CauseTrauma
	}
}
