package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Profile is the caller-supplied financial record. Values are kept as decoded
// JSON (numbers as json.Number) so that re-encoding reproduces the caller's input.
type Profile map[string]any

// Known profile attributes, in the order the scoring form and the model use them.
const (
	FieldNetMonthlyIncome    = "NETMONTHLYINCOME"
	FieldAge                 = "AGE"
	FieldTimeWithEmployer    = "Time_With_Curr_Empr"
	FieldCCUtilization       = "CC_utilization"
	FieldPLUtilization       = "PL_utilization"
	FieldEnquiriesLast6m     = "enq_L6m"
	FieldTotalEnquiries      = "tot_enq"
	FieldDelinquencies12m    = "num_deliq_12mts"
	FieldMaxDelinquencyLevel = "max_delinquency_level"
	FieldStandardLoans       = "num_std"
	FieldCCFlag              = "CC_Flag"
	FieldPLFlag              = "PL_Flag"
	FieldMaritalStatus       = "MARITALSTATUS"
	FieldEducation           = "EDUCATION"
	FieldGender              = "GENDER"
	FieldCreditScore         = "Credit_Score"
)

// PredictedClassField is the request field carrying the label on recommendation requests.
const PredictedClassField = "predictedClass"

// ParseProfile decodes a single JSON object into a Profile.
func ParseProfile(data []byte) (Profile, error) {
	var raw map[string]any
	if err := decodeObject(data, &raw); err != nil {
		return nil, err
	}
	return Profile(raw), nil
}

// Clone returns a shallow copy of the profile.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func decodeObject(data []byte, dst *map[string]any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if *dst == nil {
		return fmt.Errorf("%w: body must be a JSON object", ErrInvalidRequest)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", ErrInvalidRequest)
	}
	return nil
}

// RecommendationRequest is the body of a recommendation call: the label plus the
// profile fields flattened next to it.
type RecommendationRequest struct {
	PredictedClass RiskClass
	Profile        Profile
}

// UnmarshalJSON splits {"predictedClass": ..., ...profile} into label and profile.
func (r *RecommendationRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := decodeObject(data, &raw); err != nil {
		return err
	}

	label, ok := raw[PredictedClassField]
	if !ok {
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, PredictedClassField)
	}
	s, ok := label.(string)
	if !ok || s == "" {
		return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidRequest, PredictedClassField)
	}
	delete(raw, PredictedClassField)

	r.PredictedClass = RiskClass(s)
	r.Profile = Profile(raw)
	return nil
}

// MarshalJSON flattens the request back into the wire shape.
func (r RecommendationRequest) MarshalJSON() ([]byte, error) {
	if r.PredictedClass == "" {
		return nil, errors.New("predicted class is empty")
	}
	flat := make(map[string]any, len(r.Profile)+1)
	for k, v := range r.Profile {
		flat[k] = v
	}
	flat[PredictedClassField] = string(r.PredictedClass)
	return json.Marshal(flat)
}
