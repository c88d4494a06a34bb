package config

import "os"

// ExpandEnv expands environment variables in YAML content using Go's standard library.
// Supports both ${VAR} and $VAR syntax (standard shell-style).
//
// Examples:
//   - ${AWS_REGION} → value of AWS_REGION environment variable
//   - $HTTP_PORT → value of HTTP_PORT environment variable
//   - ${DETECT_CACHE_DIR}/detect → a path with DETECT_CACHE_DIR expanded
//
// Missing variables expand to empty string. Validation should catch required fields that are empty.
func ExpandEnv(data []byte) []byte {
	expanded := os.ExpandEnv(string(data))
	return []byte(expanded)
}
