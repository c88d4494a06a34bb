package masking

import (
	"encoding/json"
	"strings"
)

// MaskedCredentialValue is the replacement string for masked credential fields.
const MaskedCredentialValue = "[MASKED_CREDENTIAL]"

// credentialFields lists JSON object keys treated as sensitive regardless of
// value shape, matched case-insensitively.
var credentialFields = map[string]bool{
	"accesskeyid":     true,
	"secretaccesskey": true,
	"sessiontoken":    true,
	"password":        true,
	"apikey":          true,
	"token":           true,
	"authorization":   true,
}

// AWSCredentialMasker walks JSON objects (CloudTrail events, SOP executor
// output, webhook payloads) looking for credential-shaped fields and
// redacts their values while leaving the rest of the structure intact.
type AWSCredentialMasker struct{}

// Name returns the unique identifier for this masker.
func (m *AWSCredentialMasker) Name() string { return "aws_credential" }

// AppliesTo performs a lightweight check on whether this masker should
// process the data.
func (m *AWSCredentialMasker) AppliesTo(data string) bool {
	trimmed := strings.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	lower := strings.ToLower(data)
	for field := range credentialFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// Mask parses the data as JSON and redacts credential-shaped fields.
// Returns the original data on parse failure (defensive).
func (m *AWSCredentialMasker) Mask(data string) string {
	var doc any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return data
	}

	masked := maskCredentialValue(doc)

	out, err := json.Marshal(masked)
	if err != nil {
		return data
	}
	return string(out)
}

func maskCredentialValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for key, val := range t {
			if credentialFields[strings.ToLower(key)] {
				t[key] = MaskedCredentialValue
				continue
			}
			t[key] = maskCredentialValue(val)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = maskCredentialValue(item)
		}
		return t
	default:
		return v
	}
}
