package analyzers

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strings"

	"triage/internal/engine"
)

// SecretPattern defines one credential detection rule. Patterns with a
// capture group match the secret value inside a larger expression; the
// group is what gets entropy-checked and redacted.
type SecretPattern struct {
	Name       string
	Regex      *regexp.Regexp
	Severity   engine.Severity
	Message    string
	MinEntropy float64 // 0 disables the entropy gate
}

// SecretPatterns contains the builtin credential rules. The provider
// formats follow the published token shapes; the generic rules lean on
// the entropy gate to stay quiet on ordinary assignments.
var SecretPatterns = []SecretPattern{
	{
		Name:     "aws_access_key_id",
		Regex:    regexp.MustCompile(`(?:^|[^A-Z0-9])((?:AKIA|ABIA|ACCA|AGPA|AIDA|AIPA|ANPA|ANVA|AROA|ASCA|ASIA)[A-Z0-9]{16})(?:[^A-Z0-9]|$)`),
		Severity: engine.SeverityCritical,
		Message:  "hardcoded AWS access key ID",
	},
	{
		Name:       "aws_secret_key",
		Regex:      regexp.MustCompile(`(?i)(?:aws[_-]?)?secret[_-]?(?:access[_-]?)?key['":\s=]+['"]?([A-Za-z0-9/+=]{40})['"]?`),
		Severity:   engine.SeverityCritical,
		Message:    "hardcoded AWS secret access key",
		MinEntropy: 3.5,
	},
	{
		Name:     "github_token",
		Regex:    regexp.MustCompile(`\b((?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{36,})`),
		Severity: engine.SeverityCritical,
		Message:  "hardcoded GitHub token",
	},
	{
		Name:     "github_fine_grained_token",
		Regex:    regexp.MustCompile(`\b(github_pat_[A-Za-z0-9]{22}_[A-Za-z0-9]{59})`),
		Severity: engine.SeverityCritical,
		Message:  "hardcoded GitHub fine-grained token",
	},
	{
		Name:     "stripe_live_key",
		Regex:    regexp.MustCompile(`\b((?:sk|rk)_live_[A-Za-z0-9]{24,})`),
		Severity: engine.SeverityCritical,
		Message:  "hardcoded Stripe live key",
	},
	{
		Name:     "stripe_test_key",
		Regex:    regexp.MustCompile(`\b(sk_test_[A-Za-z0-9]{24,})`),
		Severity: engine.SeverityInfo,
		Message:  "hardcoded Stripe test key",
	},
	{
		Name:     "slack_token",
		Regex:    regexp.MustCompile(`\b(xox[bp]-[0-9]{10,13}-[0-9]{10,13}-[A-Za-z0-9-]{24,})`),
		Severity: engine.SeverityError,
		Message:  "hardcoded Slack token",
	},
	{
		Name:     "slack_webhook",
		Regex:    regexp.MustCompile(`(https://hooks\.slack\.com/services/T[A-Z0-9]{8,}/B[A-Z0-9]{8,}/[A-Za-z0-9]{24})`),
		Severity: engine.SeverityWarning,
		Message:  "hardcoded Slack webhook URL",
	},
	{
		Name:     "private_key",
		Regex:    regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`),
		Severity: engine.SeverityCritical,
		Message:  "private key material in source",
	},
	{
		Name:     "google_api_key",
		Regex:    regexp.MustCompile(`\b(AIza[A-Za-z0-9_-]{35})`),
		Severity: engine.SeverityError,
		Message:  "hardcoded Google API key",
	},
	{
		Name:     "npm_token",
		Regex:    regexp.MustCompile(`\b(npm_[A-Za-z0-9]{36})`),
		Severity: engine.SeverityError,
		Message:  "hardcoded npm access token",
	},
	{
		Name:       "jwt_token",
		Regex:      regexp.MustCompile(`\b(eyJ[A-Za-z0-9_-]{8,}\.eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]+)`),
		Severity:   engine.SeverityWarning,
		Message:    "hardcoded JSON web token",
		MinEntropy: 3.0,
	},
	{
		Name:       "password_in_url",
		Regex:      regexp.MustCompile(`://[^:/\s]+:([^@/\s]{3,})@[^/\s]+`),
		Severity:   engine.SeverityError,
		Message:    "credentials embedded in URL",
		MinEntropy: 2.5,
	},
	{
		Name:       "generic_api_key",
		Regex:      regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)['":\s=]+['"]?([A-Za-z0-9_-]{20,64})['"]?`),
		Severity:   engine.SeverityWarning,
		Message:    "hardcoded API key",
		MinEntropy: 3.5,
	},
	{
		Name:       "bearer_token",
		Regex:      regexp.MustCompile(`(?i)authorization['":\s=]+['"]?bearer\s+([A-Za-z0-9._-]{20,})['"]?`),
		Severity:   engine.SeverityWarning,
		Message:    "hardcoded bearer token",
		MinEntropy: 3.0,
	},
}

// SecretPatternByName returns the builtin rule with the given name, or nil.
func SecretPatternByName(name string) *SecretPattern {
	for i := range SecretPatterns {
		if SecretPatterns[i].Name == name {
			return &SecretPatterns[i]
		}
	}
	return nil
}

// placeholderMarkers flag lines that carry sample or template values
// rather than live credentials.
var placeholderMarkers = []string{
	"example",
	"sample",
	"placeholder",
	"dummy",
	"fake",
	"mock",
	"<your",
	"your_",
	"xxx",
	"changeme",
	"${",
	"{{",
}

// SecretAnalyzer flags hardcoded credentials and key material. It scans
// every text file in the target, not just recognized source languages,
// since secrets tend to land in env files and configuration.
type SecretAnalyzer struct {
	logger   *slog.Logger
	patterns []SecretPattern
}

// NewSecretAnalyzer creates a secret analyzer with the builtin rules.
func NewSecretAnalyzer(logger *slog.Logger) *SecretAnalyzer {
	return &SecretAnalyzer{
		logger:   logger,
		patterns: SecretPatterns,
	}
}

// Name returns the registry name.
func (s *SecretAnalyzer) Name() string { return "secrets" }

// Analyze applies every credential rule to every line of every target file.
func (s *SecretAnalyzer) Analyze(ctx context.Context, target engine.Target) ([]engine.ErrorRecord, error) {
	records := make([]engine.ErrorRecord, 0)

	for _, file := range target.Files {
		select {
		case <-ctx.Done():
			return records, ctx.Err()
		default:
		}

		content, err := os.ReadFile(target.Abs(file))
		if err != nil {
			s.logger.Debug("skipping unreadable file", "file", file, "error", err)
			continue
		}

		records = append(records, s.scanLines(file, target.Language(file), content)...)
	}

	return records, nil
}

func (s *SecretAnalyzer) scanLines(file, lang string, content []byte) []engine.ErrorRecord {
	var records []engine.ErrorRecord

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Minified or encoded lines are noise.
		if len(line) > 1000 {
			continue
		}

		for _, p := range s.patterns {
			for _, match := range p.Regex.FindAllStringSubmatchIndex(line, -1) {
				secret := line[match[0]:match[1]]
				if len(match) >= 4 && match[2] >= 0 {
					secret = line[match[2]:match[3]]
				}

				if p.MinEntropy > 0 && shannonEntropy(secret) < p.MinEntropy {
					continue
				}
				if looksLikePlaceholder(line) {
					continue
				}

				records = append(records, engine.ErrorRecord{
					File:     file,
					Line:     lineNum,
					Column:   match[0] + 1,
					Category: engine.CategoryConfiguration,
					Severity: p.Severity,
					Message:  p.Message,
					Snippet:  redactSecret(secret),
					Language: lang,
				})
			}
		}
	}

	return records
}

// shannonEntropy measures the randomness of a string in bits per
// character. Live tokens typically land above 3.5; prose and
// identifiers stay well below.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}

	freq := make(map[rune]int)
	for _, r := range s {
		freq[r]++
	}

	length := float64(len(s))
	var entropy float64
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// looksLikePlaceholder reports whether the line carries a template or
// sample value instead of a real credential.
func looksLikePlaceholder(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// redactSecret keeps a short identifying prefix and masks the rest so
// reports never republish the credential.
func redactSecret(s string) string {
	const keep = 4
	if len(s) <= keep {
		return strings.Repeat("*", len(s))
	}
	masked := len(s) - keep
	if masked > 20 {
		masked = 20
	}
	return s[:keep] + strings.Repeat("*", masked)
}
