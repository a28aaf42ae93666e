package domain

// RiskClass is the label produced by the classification model.
type RiskClass string

// Risk tiers, lowest to highest risk.
const (
	RiskClassP1 RiskClass = "P1"
	RiskClassP2 RiskClass = "P2"
	RiskClassP3 RiskClass = "P3"
	RiskClassP4 RiskClass = "P4"
)

var riskDescriptions = map[RiskClass]string{
	RiskClassP1: "Excellent / Very Low Risk",
	RiskClassP2: "Good / Moderate Risk",
	RiskClassP3: "Risky / Below Average",
	RiskClassP4: "High Risk / Very Poor History",
}

// Known reports whether the label is one of the four tiers.
func (c RiskClass) Known() bool {
	_, ok := riskDescriptions[c]
	return ok
}

// Description returns a short human description, empty for unknown labels.
func (c RiskClass) Description() string {
	return riskDescriptions[c]
}

// Prediction is the outcome of a successful classification.
type Prediction struct {
	PredictedClass RiskClass `json:"predictedClass"`
}
