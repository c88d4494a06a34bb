package masking

import "regexp"

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatterns catches the credential and identifier shapes most likely
// to show up in CloudWatch alarm payloads, CloudTrail events, and SOP
// executor output: long-lived AWS keys, session tokens, account-scoped
// ARNs, and RFC1918 addresses that shouldn't leave the incident record.
var builtinPatterns = []struct {
	name        string
	pattern     string
	replacement string
}{
	{
		name:        "aws_access_key_id",
		pattern:     `\bAKIA[0-9A-Z]{16}\b`,
		replacement: "[MASKED_AWS_ACCESS_KEY]",
	},
	{
		name:        "aws_secret_access_key",
		pattern:     `(?i)(aws_secret_access_key|secret_access_key|secretaccesskey)(["']?\s*[:=]\s*["']?)[A-Za-z0-9/+=]{40}`,
		replacement: "${1}${2}[MASKED_SECRET_KEY]",
	},
	{
		name:        "aws_session_token",
		pattern:     `(?i)(session_token|sessiontoken)(["']?\s*[:=]\s*["']?)[A-Za-z0-9/+=]{100,}`,
		replacement: "${1}${2}[MASKED_SESSION_TOKEN]",
	},
	{
		name:        "aws_account_arn",
		pattern:     `arn:aws:[a-zA-Z0-9_-]+:[a-z0-9-]*:\d{12}:[^\s"']+`,
		replacement: "[MASKED_ARN]",
	},
	{
		name:        "aws_account_id",
		pattern:     `\b\d{12}\b`,
		replacement: "[MASKED_ACCOUNT_ID]",
	},
	{
		name:        "private_ipv4",
		pattern:     `\b(?:10(?:\.\d{1,3}){3}|172\.(?:1[6-9]|2\d|3[01])(?:\.\d{1,3}){2}|192\.168(?:\.\d{1,3}){2})\b`,
		replacement: "[MASKED_IP]",
	},
}

func compileBuiltinPatterns() map[string]*CompiledPattern {
	compiled := make(map[string]*CompiledPattern, len(builtinPatterns))
	for _, p := range builtinPatterns {
		re, err := regexp.Compile(p.pattern)
		if err != nil {
			// Built-in patterns are fixed at compile time; a bad pattern
			// here is a programmer error, not a runtime condition.
			panic("masking: invalid builtin pattern " + p.name + ": " + err.Error())
		}
		compiled[p.name] = &CompiledPattern{Name: p.name, Regex: re, Replacement: p.replacement}
	}
	return compiled
}
