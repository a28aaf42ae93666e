package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"credit-advisor/domain"
)

// CacheKey returns the canonical JSON encoding of the label together with the
// profile fields. Object keys are sorted at every level, so the key does not
// depend on the order the caller sent the fields in.
func CacheKey(label domain.RiskClass, profile domain.Profile) (string, error) {
	flat := make(map[string]any, len(profile)+1)
	for k, v := range profile {
		flat[k] = v
	}
	flat[domain.PredictedClassField] = string(label)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(flat); err != nil {
		return "", fmt.Errorf("%w: profile is not encodable: %v", domain.ErrInvalidRequest, err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
