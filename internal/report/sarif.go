package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"triage/internal/engine"
	"triage/internal/errors"
	"triage/internal/version"
)

// SARIF 2.1.0 schema types
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name            string      `json:"name"`
	Version         string      `json:"version,omitempty"`
	SemanticVersion string      `json:"semanticVersion,omitempty"`
	Rules           []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID                   string                  `json:"id"`
	Name                 string                  `json:"name,omitempty"`
	ShortDescription     *sarifMessage           `json:"shortDescription,omitempty"`
	DefaultConfiguration *sarifRuleConfiguration `json:"defaultConfiguration,omitempty"`
}

type sarifRuleConfiguration struct {
	Level string `json:"level,omitempty"` // error, warning, note, none
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level,omitempty"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          map[string]any    `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysicalLocation `json:"physicalLocation,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation *sarifArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *sarifRegion           `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri,omitempty"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

func renderSARIF(result *engine.ScanResult) ([]byte, error) {
	// One rule per category, in sorted order so rule indexes are stable.
	categories := make([]string, 0, len(result.Summary.ByCategory))
	seen := make(map[string]bool)
	for _, rec := range result.Records {
		if !seen[rec.Category] {
			seen[rec.Category] = true
			categories = append(categories, rec.Category)
		}
	}
	sort.Strings(categories)

	rules := make([]sarifRule, 0, len(categories))
	ruleIndex := make(map[string]int, len(categories))
	for i, category := range categories {
		ruleIndex[category] = i
		rules = append(rules, sarifRule{
			ID:   "triage/" + category,
			Name: category,
			ShortDescription: &sarifMessage{
				Text: fmt.Sprintf("Findings in the %s category", category),
			},
			DefaultConfiguration: &sarifRuleConfiguration{
				Level: categoryLevel(result, category),
			},
		})
	}

	results := make([]sarifResult, 0, len(result.Records))
	for _, rec := range result.Records {
		sr := sarifResult{
			RuleID:    "triage/" + rec.Category,
			RuleIndex: ruleIndex[rec.Category],
			Level:     sarifLevel(rec.Severity),
			Message:   sarifMessage{Text: rec.Message},
			PartialFingerprints: map[string]string{
				"triage/v1": fingerprint(rec),
			},
			Properties: map[string]any{
				"source": rec.Source,
			},
		}
		if rec.File != "" {
			sr.Locations = []sarifLocation{{
				PhysicalLocation: &sarifPhysicalLocation{
					ArtifactLocation: &sarifArtifactLocation{
						URI:       rec.File,
						URIBaseID: "%SRCROOT%",
					},
					Region: &sarifRegion{
						StartLine:   rec.Line,
						StartColumn: rec.Column,
					},
				},
			}}
		}
		results = append(results, sr)
	}

	report := sarifReport{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:            "triage",
					Version:         version.Version,
					SemanticVersion: version.Version,
					Rules:           rules,
				},
			},
			Results: results,
		}},
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.InternalError, "failed to encode SARIF", err)
	}
	return append(data, '\n'), nil
}

// sarifLevel maps record severities onto the SARIF level set.
func sarifLevel(s engine.Severity) string {
	switch s {
	case engine.SeverityCritical, engine.SeverityError:
		return "error"
	case engine.SeverityWarning:
		return "warning"
	case engine.SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}

// categoryLevel picks the most serious level among a category's records
// as the rule default.
func categoryLevel(result *engine.ScanResult, category string) string {
	best := engine.SeverityInfo
	for _, rec := range result.Records {
		if rec.Category == category && rec.Severity.Weight() > best.Weight() {
			best = rec.Severity
		}
	}
	return sarifLevel(best)
}

// fingerprint is a stable identity for a finding, independent of scan ids
// and timestamps.
func fingerprint(rec engine.ErrorRecord) string {
	data := fmt.Sprintf("%s|%s|%d|%s", rec.Source, rec.File, rec.Line, rec.Message)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:16]
}
