package masking

import "log/slog"

// Service applies data masking to trigger payloads, collected evidence, and
// RCA findings before they are logged or stored. Created once at startup
// (the system wires a single instance into AlarmIngestor, EventCorrelator,
// and the orchestrator). Stateless after construction, safe for concurrent use.
type Service struct {
	patterns    map[string]*CompiledPattern
	patternKeys []string // application order: ARNs before bare account IDs, etc.
	codeMaskers []Masker
}

// NewService creates a masking service with every built-in pattern compiled
// and the AWS-credential code masker registered.
func NewService() *Service {
	compiled := compileBuiltinPatterns()
	keys := make([]string, 0, len(builtinPatterns))
	for _, p := range builtinPatterns {
		keys = append(keys, p.name)
	}

	s := &Service{
		patterns:    compiled,
		patternKeys: keys,
		codeMaskers: []Masker{&AWSCredentialMasker{}},
	}

	slog.Info("masking service initialized",
		"builtin_patterns", len(s.patterns),
		"code_maskers", len(s.codeMaskers))

	return s
}

// Mask applies every registered masker to data and returns the result. On
// any unexpected failure it fails closed, returning a redaction notice
// rather than risking a leak.
func (s *Service) Mask(data string) (result string) {
	if data == "" {
		return data
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("masking panicked, redacting content", "panic", r)
			result = "[REDACTED: masking failure]"
		}
	}()

	masked := data

	for _, m := range s.codeMaskers {
		if m.AppliesTo(masked) {
			masked = m.Mask(masked)
		}
	}

	for _, name := range s.patternKeys {
		pattern := s.patterns[name]
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}

	return masked
}

// MaskTriggerData redacts an alarm's raw trigger payload before it is
// attached to an incident record or logged.
func (s *Service) MaskTriggerData(data string) string {
	return s.Mask(data)
}

// MaskEvidence redacts collected evidence (metrics, trail events, anomaly
// descriptions) before it is passed to the RCA analyzer or persisted.
func (s *Service) MaskEvidence(data string) string {
	return s.Mask(data)
}
