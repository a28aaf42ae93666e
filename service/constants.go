package service

import "time"

const (
	MaxRequestBodyBytes = 1 << 20 // 1 MiB per request
	MaxProfileFields    = 256     // fields per profile

	// Upper bound of one shared generation call
	GenerationTimeout = 90 * time.Second

	// Prompt text for a known field the caller did not send
	missingFieldText = "not provided"
)
